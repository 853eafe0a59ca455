package component

// Account stores the authenticated account data for a player entity.
type Account struct {
	Name    string
	Rights  byte
	Flagged bool
	Member  bool
}

// Social holds friends, ignores and chat privacy. Names are base37 encoded.
type Social struct {
	Friends []uint64
	Ignores []uint64
	Public  byte
	Private byte
	Trade   byte
}
