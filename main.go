// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/shinc/shinc/cmd/shinc"

func main() {
	cmd.Execute()
}
