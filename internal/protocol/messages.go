package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// CallerID is the identity the authorization layer vouched for.
	CallerID string `json:"caller_id"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	CallerID        string         `json:"caller_id"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	RecipesDigest string `json:"recipes_digest"`
	TuningDigest  string `json:"tuning_digest,omitempty"`
}

// Operations carried by REQ.
const (
	OpCraft        = "CRAFT"
	OpInstall      = "INSTALL"
	OpUninstall    = "UNINSTALL"
	OpCraftCount   = "CRAFT_COUNT"
	OpMultiplier   = "MULTIPLIER"
	OpInstalled    = "INSTALLED"
	OpItem         = "ITEM"
	OpStationItems = "STATION_ITEMS"
)

type ResourceAmount struct {
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
}

// REQ (client -> server)
type ReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	StationID string           `json:"station_id,omitempty"`
	CarrierID string           `json:"carrier_id,omitempty"`
	ModuleID  string           `json:"module_id,omitempty"`
	ItemID    string           `json:"item_id,omitempty"`
	Role      string           `json:"role,omitempty"`
	Biome     int              `json:"biome,omitempty"`
	Resources []ResourceAmount `json:"resources,omitempty"`
}

// RESP (server -> client)
type RespMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Result          any    `json:"result,omitempty"`
}

type CraftResult struct {
	ItemID string `json:"item_id"`
}

type CraftCountResult struct {
	Count       int   `json:"count"`
	LastCraftAt int64 `json:"last_craft_at"`
}

type MultiplierResult struct {
	Percent int `json:"percent"`
}

// Resp builds a response for ref from an operation outcome.
func Resp(ref string, result any, err error) RespMsg {
	r := RespMsg{Type: TypeResp, ProtocolVersion: Version, Ref: ref}
	if err != nil {
		r.Code = CodeOf(err)
		r.Message = err.Error()
		if r.Code == ErrInternal {
			r.Message = "internal error"
		}
		return r
	}
	r.OK = true
	r.Result = result
	return r
}
