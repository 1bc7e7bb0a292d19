// SPDX-License-Identifier: MPL-2.0

package main

import (
	cmd "taskpipe/cmd/taskpipe"
)

func main() {
	cmd.Execute()
}
