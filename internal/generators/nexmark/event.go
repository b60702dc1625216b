// Package nexmark ports the NEXMark auction-benchmark event model and
// deterministic generator: three record kinds (Person, Auction, Bid)
// interleaved at fixed proportions, with every field recoverable from
// a plain event number so that a run is fully reproducible without
// shared state across generator threads.
package nexmark

// Id is the numeric identifier space shared by person, auction, and
// bid records — NEXMark never distinguishes these at the type level,
// only by the numeric range each kind's ids are offset into.
type Id = uint64

// Date is a NEXMark timestamp: milliseconds since the Unix epoch.
type Date = uint64

const (
	minStringLength = 3
	numCategories   = 5
	auctionIDLead   = 10

	hotSellerRatio = 100
	hotAuctionRatio = 100
	hotBidderRatio  = 100

	// WARNING: these three proportions are not freely rescalable —
	// changing them to another ratio that "looks" equivalent (e.g.
	// 2/6/92) changes the generated sequence, because id recovery
	// divides by the denominator directly.
	personProportion  = 1
	auctionProportion = 3
	bidProportion     = 46
	proportionDenominator = personProportion + auctionProportion + bidProportion

	firstAuctionID  = 1000
	firstPersonID   = 1000
	firstCategoryID = 10
	personIDLead    = 10

	sineApproxSteps = 10
	// BaseTime is 2015-07-15T00:00:00.000Z, the default Config base-time.
	BaseTime = 1436918400_000
)

var usStates = []string{"AZ", "CA", "ID", "OR", "WA", "WY"}
var usCities = []string{"Phoenix", "Los Angeles", "San Francisco", "Boise", "Portland", "Bend", "Redmond", "Seattle", "Kent", "Cheyenne"}
var firstNames = []string{"Peter", "Paul", "Luke", "John", "Saul", "Vicky", "Kate", "Julie", "Sarah", "Deiter", "Walter"}
var lastNames = []string{"Shultz", "Abrams", "Spencer", "White", "Bartels", "Walton", "Smith", "Jones", "Noris"}

// Kind discriminates the three event payloads a record may carry.
type Kind int

const (
	KindPerson Kind = iota
	KindAuction
	KindBid
)

// Event is the tagged union NEXMark streams: exactly one of Person,
// Auction, Bid is meaningful, selected by Kind.
type Event struct {
	Kind    Kind
	Person  Person
	Auction Auction
	Bid     Bid
}

// Person is a NEXMark person-registers-on-the-auction-site record.
type Person struct {
	ID           Id
	Name         string
	EmailAddress string
	CreditCard   string
	City         string
	State        string
	DateTime     Date
}

// Auction is a NEXMark new-item-listed record.
type Auction struct {
	ID          Id
	ItemName    string
	Description string
	InitialBid  uint64
	Reserve     uint64
	DateTime    Date
	Expires     Date
	Seller      Id
	Category    Id
}

// Bid is a NEXMark bid-placed-on-an-auction record.
type Bid struct {
	Auction  Id
	Bidder   Id
	Price    uint64
	DateTime Date
}

// AsPerson extracts a Person from e, the Go analogue of the Rust
// source's Person::from(Event) filter_map.
func AsPerson(e Event) (Person, bool) {
	if e.Kind != KindPerson {
		return Person{}, false
	}
	return e.Person, true
}

// AsAuction extracts an Auction from e.
func AsAuction(e Event) (Auction, bool) {
	if e.Kind != KindAuction {
		return Auction{}, false
	}
	return e.Auction, true
}

// AsBid extracts a Bid from e.
func AsBid(e Event) (Bid, bool) {
	if e.Kind != KindBid {
		return Bid{}, false
	}
	return e.Bid, true
}
