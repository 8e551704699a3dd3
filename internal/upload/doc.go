// Package upload validates source files and pushes them to the service one
// at a time. Uploads are strictly sequential: the next file starts only after
// the server has acknowledged the previous one, and the first failure aborts
// the batch.
package upload
