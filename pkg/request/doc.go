// Package request manages execution requests and their event logs.
//
// Every change to a request is an event appended through
// store.RequestStore.Update, which serializes appends per request. The review
// status stored on the request is recomputed from the full history on every
// append and is never set directly.
//
// All operations read the caller from identity.Get and check the relevant
// permission on the request's connection before anything is written.
package request
