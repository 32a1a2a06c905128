// Package policy evaluates role policies and loads role documents.
//
// A principal is granted an action on a resource when at least one policy of
// one of its roles allows it and no matching policy denies it. Anything not
// explicitly allowed is denied.
//
// # Role Documents
//
// Roles and role assignments are maintained as YAML documents:
//
//	roles:
//	  - name: developer
//	    description: Create, review and execute requests
//	    policies:
//	      - action: execution_request:*
//	        effect: allow
//	        resource: "*"
//	principals:
//	  - id: alice
//	    email: alice@example.com
//	    roles: [developer]
//
// # Usage
//
//	ev := policy.NewEvaluator(principals, logger)
//	if err := ev.Check(ctx, principalID, permission.ExecutionRequestExecute, connID); err != nil {
//	    return err // errs.ErrUnauthorized
//	}
package policy
