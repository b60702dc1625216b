package nexmark

// newPerson builds the Person for event id at time, following the
// Rust source's Person::new: name/email/credit-card/city/state are
// all drawn from the per-event seeded RNG, so the record is fully
// reproducible from id alone.
func newPerson(id Id, t Date, r rng) Person {
	return Person{
		ID:           personLastID(id) + firstPersonID,
		Name:         chooseString(r, firstNames) + " " + chooseString(r, lastNames),
		EmailAddress: r.genString(7) + "@" + r.genString(5) + ".com",
		CreditCard:   fourDigitGroups(r, 4),
		City:         chooseString(r, usCities),
		State:        chooseString(r, usStates),
		DateTime:     t,
	}
}

// personNextID draws a plausible "existing person" id near the active
// window, biased toward recently-created people the way a real
// marketplace's recent-bidder pool would be.
func personNextID(id Id, r rng, nex Config) Id {
	people := personLastID(id) + 1
	active := people
	if uint64(nex.ActivePeople) < active {
		active = uint64(nex.ActivePeople)
	}
	return people - active + Id(r.genRange(0, int(active)+personIDLead))
}

// personLastID recovers the sequence number of the most recently
// generated person as of event id, by dividing the event stream's
// proportional interleaving back out.
func personLastID(id Id) Id {
	epoch := id / proportionDenominator
	offset := id % proportionDenominator
	if personProportion <= offset {
		offset = personProportion - 1
	}
	return epoch*personProportion + offset
}
