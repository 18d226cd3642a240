// wifictl runs the controller side of the experiment: it attaches to the
// exchange channel created by wifisim, answers every observation with a
// transmit power decision, and can summarize recorded runs.
package main

func main() {
	Execute()
}
