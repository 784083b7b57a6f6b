package election

import (
	"math"
	"sort"
	"time"
)

// Candidate is one registered party's tally going into seat allocation.
type Candidate struct {
	PartyID   uint
	Name      string
	Votes     int
	CreatedAt time.Time
}

// Allocation is the seat award for one party.
type Allocation struct {
	PartyID uint   `json:"party_id"`
	Name    string `json:"name"`
	Votes   int    `json:"votes"`
	Seats   int    `json:"seats"`
}

// AllocateSeats distributes seats by largest-remainder apportionment.
// Parties whose share of all votes cast is below thresholdPercent get zero
// seats. Among the qualifying parties each gets floor(share*seats) of the
// qualifying total, then leftover seats go one by one to the largest
// fractional remainders, ties broken by earliest party creation time. The
// awarded seats always sum to the full capacity when anyone qualifies.
func AllocateSeats(candidates []Candidate, seats, thresholdPercent int) []Allocation {
	allocations := make([]Allocation, len(candidates))

	total := 0
	for i, c := range candidates {
		allocations[i] = Allocation{PartyID: c.PartyID, Name: c.Name, Votes: c.Votes}
		total += c.Votes
	}

	if total == 0 || seats <= 0 {
		return allocations
	}

	type qualified struct {
		index     int
		remainder float64
		createdAt time.Time
	}

	var (
		qualifying     []qualified
		qualifiedVotes int
	)

	for i, c := range candidates {
		if c.Votes*100 >= thresholdPercent*total {
			qualifying = append(qualifying, qualified{index: i, createdAt: c.CreatedAt})
			qualifiedVotes += c.Votes
		}
	}

	if qualifiedVotes == 0 {
		return allocations
	}

	allocated := 0

	for qi := range qualifying {
		q := &qualifying[qi]
		share := float64(candidates[q.index].Votes) / float64(qualifiedVotes)
		exact := share * float64(seats)
		whole := int(math.Floor(exact))

		allocations[q.index].Seats = whole
		q.remainder = exact - float64(whole)
		allocated += whole
	}

	sort.SliceStable(qualifying, func(a, b int) bool {
		if qualifying[a].remainder != qualifying[b].remainder {
			return qualifying[a].remainder > qualifying[b].remainder
		}

		return qualifying[a].createdAt.Before(qualifying[b].createdAt)
	})

	for i := 0; allocated < seats; i++ {
		allocations[qualifying[i%len(qualifying)].index].Seats++
		allocated++
	}

	return allocations
}
