package nakama

const (
	// RPC ids registered with Nakama.
	RpcFindParty         = "find_party"
	RpcSubmitTurn        = "submit_turn"
	RpcSkipTurn          = "skip_turn"
	RpcPartyState        = "party_state"
	RpcInteractionMatrix = "interaction_matrix"
	RpcCreateInvite      = "create_invite"

	// MatchNameLobby is the authoritative lobby handler name registered with Nakama.
	MatchNameLobby = "sketchrelay_lobby"

	// partyConfigPath locates the tunable party rules inside the Nakama data directory.
	partyConfigPath = "data/party_config.json"
)

// Environment variables read from the Nakama runtime env.
const (
	envInviteSecret = "sketchrelay_invite_secret"
	envInviteIssuer = "sketchrelay_invite_issuer"
)

// Op codes for lobby messages and server events.
const (
	// Client -> Server
	OpSubmitPrompt int64 = 1
	OpStartSeason  int64 = 2
	OpSetLocked    int64 = 3

	// Server -> Client events
	OpLobbyState        int64 = 101
	OpParticipantJoined int64 = 102
	OpParticipantLeft   int64 = 103
	OpSeasonStarted     int64 = 104
	OpLobbyError        int64 = 105
)

// Notification codes for events delivered outside a live lobby socket.
const (
	NotifyTurnAssigned  = 110
	NotifyTurnSkipped   = 111
	NotifyGameCompleted = 112
	NotifyPartyFinished = 113
	NotifySeasonStarted = 114
)
