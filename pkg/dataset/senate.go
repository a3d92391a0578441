package dataset

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/votetable/pkg/votes"
)

// SenateChamber is the chamber recorded for members read from Senate roll calls.
const SenateChamber = "Senate"

// Vote cast labels as displayed in the table.
const (
	VoteYea       = "Yea"
	VoteNay       = "Nay"
	VotePresent   = "Present"
	VoteNotVoting = "Not Voting"
)

// NormalizeVoteCast maps the spellings used in roll call feeds onto the
// display labels. Unrecognised values are returned trimmed but otherwise
// unchanged.
func NormalizeVoteCast(s string) string {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "yea", "aye", "yes":
		return VoteYea
	case "nay", "no":
		return VoteNay
	case "present":
		return VotePresent
	case "not voting", "not_voting", "notvoting":
		return VoteNotVoting
	default:
		return trimmed
	}
}

type xmlRollCallVote struct {
	XMLName  xml.Name       `xml:"roll_call_vote"`
	Congress int            `xml:"congress"`
	Members  xmlMembersList `xml:"members"`
}

type xmlMembersList struct {
	Members []xmlMember `xml:"member"`
}

type xmlMember struct {
	MemberFull  string `xml:"member_full"`
	LastName    string `xml:"last_name"`
	FirstName   string `xml:"first_name"`
	Party       string `xml:"party"`
	State       string `xml:"state"`
	VoteCast    string `xml:"vote_cast"`
	LISMemberID string `xml:"lis_member_id"`
}

// DecodeSenateRollCall reads a senate.gov roll call vote document and returns
// one record per member, in document order.
func DecodeSenateRollCall(r io.Reader) ([]votes.VoteRecord, error) {
	var rollCall xmlRollCallVote
	if err := xml.NewDecoder(r).Decode(&rollCall); err != nil {
		return nil, fmt.Errorf("failed to parse roll call vote XML: %w", err)
	}

	records := make([]votes.VoteRecord, 0, len(rollCall.Members.Members))
	for _, member := range rollCall.Members.Members {
		records = append(records, votes.VoteRecord{
			ID:       votes.MemberID(strings.TrimSpace(member.LISMemberID)),
			Name:     senateMemberName(member),
			Party:    strings.TrimSpace(member.Party),
			State:    votes.NormalizeState(member.State),
			Vote:     NormalizeVoteCast(member.VoteCast),
			Congress: rollCall.Congress,
			Chamber:  SenateChamber,
		})
	}
	return records, nil
}

// senateMemberName prefers "Last, First" and falls back to member_full.
func senateMemberName(member xmlMember) string {
	lastName := strings.TrimSpace(member.LastName)
	firstName := strings.TrimSpace(member.FirstName)
	switch {
	case lastName != "" && firstName != "":
		return lastName + ", " + firstName
	case lastName != "":
		return lastName
	default:
		return strings.TrimSpace(member.MemberFull)
	}
}
