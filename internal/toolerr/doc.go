// SPDX-License-Identifier: MPL-2.0

// Package toolerr defines the failure kinds surfaced by provisioning and
// generation: NetworkError, RefNotFoundError, FilesystemError and
// ToolInvocationError.
//
// Every kind is a struct carrying the failed operation, the resource it was
// operating on and the underlying cause. errors.Is matches the kind's
// sentinel (ErrNetwork, ErrRefNotFound, ErrFilesystem, ErrToolInvocation) and
// errors.Unwrap returns the cause.
package toolerr
