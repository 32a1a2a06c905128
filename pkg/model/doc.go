// Package model defines the database models for execgate.
//
// This package contains GORM models that map to the execgate database schema
// in db/migrations.
//
// # Core Models
//
//   - Principal: an identity that submits, reviews or executes requests
//   - Role: a named bundle of policies assigned to principals
//   - Policy: an action pattern, an effect and a resource pattern
//   - Connection: a datasource and its review configuration
//   - ExecutionRequest: a statement awaiting review and execution
//   - Event: one immutable entry of a request's history
//
// # Database Schema
//
//   - principals, principal_roles: identities and their role assignments
//   - roles, policies: roles own their policies
//   - connections: datasources with review_* configuration columns
//   - execution_requests: request rows with a cached review status
//   - events: append-only log, unique on (request_id, sequence)
//
// Enumerations are generated with enumer and stored as their upper snake
// case names.
package model
