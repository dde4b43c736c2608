// Command zoneserver runs one server process of a zoneworld cluster.
//
//	zoneserver -sid area1 -configfile zoneworld.ini
package main

import (
	"github.com/zoneworld/zoneworld/components/server"
)

func main() {
	server.Start()
}
