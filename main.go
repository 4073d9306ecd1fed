// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/extdeps/extdeps/cmd/extdeps"

func main() {
	cmd.Execute()
}
