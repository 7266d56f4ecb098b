package congress

import "github.com/okian/rollcall/internal/domain/probe"

// Candidate field paths for the Congress.gov vote endpoints. The beta and
// enhanced House roll-call schemas disagree on nearly every name.
var (
	listingItemPaths = probe.Paths{
		"houseRollCallVotes",
		"houseRollCallVotes.houseRollCallVote",
		"senateRollCallVotes",
		"votes",
		"results",
		"data",
	}
	memberItemPaths = probe.Paths{
		"houseRollCallVoteMemberVotes.results",
		"houseRollCallMemberVotes.results",
		"houseRollCallVote.results",
		"results.item",
		"results",
		"votes",
		"positions",
		"members",
	}
	nextPaths = probe.Paths{"pagination.next", "next", "links.next"}

	congressPaths = probe.Paths{"congress", "congressNumber"}
	sessionPaths  = probe.Paths{"sessionNumber", "session"}
	rollPaths     = probe.Paths{"rollCallNumber", "rollNumber", "roll", "rollCall"}

	titlePaths   = probe.Paths{"voteQuestion", "question", "voteDesc", "description", "bill.title", "title"}
	meaningPaths = probe.Paths{"result", "voteResult", "voteType"}
	hrefPaths    = probe.Paths{"sourceDataURL", "url", "link"}
	billType     = probe.Paths{"legislationType", "bill.type", "amendmentType"}
	billNumber   = probe.Paths{"legislationNumber", "bill.number", "amendmentNumber"}

	memberIDPaths  = probe.Paths{"bioguideID", "bioguideId", "bioguide", "member.bioguideId", "member_id", "id"}
	votePaths      = probe.Paths{"voteCast", "vote", "vote_position", "position"}
	namePaths      = probe.Paths{"name", "fullName", "member.name"}
	firstNamePaths = probe.Paths{"firstName", "first_name"}
	lastNamePaths  = probe.Paths{"lastName", "last_name"}
	partyPaths     = probe.Paths{"voteParty", "partyName", "party"}
	statePaths     = probe.Paths{"voteState", "stateCode", "state"}
)
