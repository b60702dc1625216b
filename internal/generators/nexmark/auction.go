package nexmark

// newAuction builds the Auction for event id, following the Rust
// source's Auction::new: the seller is "hot" (a recently-active
// seller) with probability (HotSellerRatio-1)/HotSellerRatio,
// otherwise a plausible existing person id is drawn; expiry is a random horizon computed from where the
// next in-flight auction would land in the timeline.
func newAuction(eventsSoFar int, id Id, t Date, r rng, nex Config) Auction {
	initialBid := r.genPrice()
	var seller Id
	if r.genRange(0, nex.HotSellerRatio) > 0 {
		seller = (personLastID(id) / hotSellerRatio) * hotSellerRatio
	} else {
		seller = personNextID(id, r, nex)
	}
	return Auction{
		ID:          auctionLastID(id) + firstAuctionID,
		ItemName:    r.genString(20),
		Description: r.genString(100),
		InitialBid:  initialBid,
		Reserve:     initialBid + r.genPrice(),
		DateTime:    t,
		Expires:     t + auctionNextLength(eventsSoFar, r, t, nex),
		Seller:      seller + firstPersonID,
		Category:    firstCategoryID + Id(r.genRange(0, numCategories)),
	}
}

// auctionNextID draws a plausible existing auction id within the
// in-flight window, the auction-stream analogue of personNextID.
func auctionNextID(id Id, r rng, nex Config) Id {
	maxAuction := auctionLastID(id)
	var minAuction Id
	if maxAuction >= uint64(nex.InFlightAuctions) {
		minAuction = maxAuction - uint64(nex.InFlightAuctions)
	}
	span := int(maxAuction-minAuction) + 1 + auctionIDLead
	return minAuction + Id(r.genRange(0, span))
}

// auctionLastID recovers the sequence number of the most recently
// generated auction as of event id.
func auctionLastID(id Id) Id {
	epoch := id / proportionDenominator
	offset := id % proportionDenominator
	switch {
	case offset < personProportion:
		epoch--
		offset = auctionProportion - 1
	case personProportion+auctionProportion <= offset:
		offset = auctionProportion - 1
	default:
		offset -= personProportion
	}
	return epoch*auctionProportion + offset
}

// auctionNextLength picks how long, in milliseconds, this auction
// will run: a random horizon bounded by how far out the next
// in-flight-window auction is projected to start.
func auctionNextLength(eventsSoFar int, r rng, t Date, nex Config) Date {
	currentEvent := nex.NextAdjustedEvent(eventsSoFar)
	eventsForAuctions := (nex.InFlightAuctions * proportionDenominator) / auctionProportion
	futureAuction := nex.EventTimestamp(currentEvent + eventsForAuctions)

	horizon := futureAuction - t
	bound := horizon * 2
	if bound < 1 {
		bound = 1
	}
	return 1 + Date(r.genRange(0, int(bound)))
}
