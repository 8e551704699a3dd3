// Package api implements the HTTP client for the MediaCraft processing
// service. All server communication goes through Client: session bootstrap,
// authentication, task creation, multipart uploads with progress reporting,
// status fetches, segment/region configuration, and result downloads.
//
// Responses use the canonical envelope {success, data, message}. The one
// historical exception is POST /api/tasks/submit, which answers with a bare
// {task_id, status, message} object; Client normalizes it.
package api
