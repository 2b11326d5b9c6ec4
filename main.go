// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/ilstrap/ilstrap/cmd/ilstrap"

func main() {
	cmd.Execute()
}
