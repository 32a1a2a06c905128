// Package permission defines the catalogue of permissions execgate checks and
// the wildcard matcher used to compare policy patterns against them.
//
// A permission is encoded as "domain:action", for example
// "execution_request:review". Policy patterns use the same ':' separated
// form where '*' stands for exactly one segment, or for every remaining
// segment when it is the last token:
//
//	Matches("execution_request:*", "execution_request:execute") // true
//	Matches("*", "anything:at:all")                           // true
//	Matches("*:get", "user:get")                               // true
//	Matches("exec*", "execution_request:get")                  // false
package permission
