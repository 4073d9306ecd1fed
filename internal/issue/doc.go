// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the Markdown troubleshooting
// catalog shown when provisioning or generation fails.
//
// This package defines error types that include remediation steps and Markdown-formatted
// guidance, improving the user experience when errors occur during CLI operations.
package issue
