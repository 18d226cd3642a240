// wifisim runs the network side of the experiment: it creates the
// exchange channel, simulates an access point with mobile stations, and
// reports one observation per station per interval to the controller.
package main

func main() {
	Execute()
}
