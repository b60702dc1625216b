package nexmark

// newBid builds the Bid for event id, following the Rust source's
// Bid::new: auction and bidder are each "hot", independently, with
// probability (HotAuctionRatio-1)/HotAuctionRatio and
// (HotBidderRatio-1)/HotBidderRatio respectively, to
// create the skewed few-auctions-get-most-bids / few-bidders-bid-most
// distribution NEXMark's hot-item queries are built to surface.
func newBid(id Id, t Date, r rng, nex Config) Bid {
	var auction Id
	if r.genRange(0, nex.HotAuctionRatio) > 0 {
		auction = (auctionLastID(id) / hotAuctionRatio) * hotAuctionRatio
	} else {
		auction = auctionNextID(id, r, nex)
	}
	var bidder Id
	if r.genRange(0, nex.HotBidderRatio) > 0 {
		bidder = (personLastID(id)/hotBidderRatio)*hotBidderRatio + 1
	} else {
		bidder = personNextID(id, r, nex)
	}
	return Bid{
		Auction:  auction + firstAuctionID,
		Bidder:   bidder + firstPersonID,
		Price:    r.genPrice(),
		DateTime: t,
	}
}
