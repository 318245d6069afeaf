package netbus

// Link is a directed edge with a fixed virtual-time propagation delay.
// Two miners are "connected" iff both directions exist; Connect always
// creates them symmetrically with equal delay (§3 data model).
type Link struct {
	Src   int64
	Dst   int64
	Delay float64
}
