// SPDX-License-Identifier: MPL-2.0

// Package testutil holds fail-fast helpers shared by taskpipe's tests:
// environment juggling (MustSetenv, MustUnsetenv), filesystem setup
// (MustChdir, MustMkdirAll, MustWriteFile), and pipefile fixtures
// (MustWritePipefile). Each helper fails the test itself on error so
// callers skip the err-check boilerplate.
package testutil
