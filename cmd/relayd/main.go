// Command relayd runs the JPYC gasless relay.
package main

import "github.com/humandebri/jpycpay/cmd"

func main() {
	cmd.Execute()
}
