package protocol

import (
	"craftguard/internal/sim/item"
	"craftguard/internal/sim/transaction"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name,omitempty"`
	Bench           bool   `json:"bench,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	PlayerID        string         `json:"player_id"`
	GridWidth       int            `json:"grid_width"`
	MaxIterations   int            `json:"max_iterations"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemPalette   DigestRef `json:"item_palette"`
	RecipesDigest string    `json:"recipes_digest"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// GRID_SET (client -> server): the client placed an item in its local grid.
type GridSetMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Slot            int        `json:"slot"`
	Item            item.Stack `json:"item"`
}

// CRAFT (client -> server): one crafting transaction as raw slot changes.
type CraftMsg struct {
	Type            string                   `json:"type"`
	ProtocolVersion string                   `json:"protocol_version"`
	TxID            string                   `json:"tx_id,omitempty"`
	Actions         []transaction.SlotChange `json:"actions"`
}

type CraftResultMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	TxID            string   `json:"tx_id"`
	Accepted        bool     `json:"accepted"`
	Code            string   `json:"code,omitempty"`
	Message         string   `json:"message,omitempty"`
	RecipeID        string   `json:"recipe_id,omitempty"`
	Iterations      int      `json:"iterations,omitempty"`
	Achievements    []string `json:"achievements,omitempty"`
}

// CONTAINER_CLOSE (server -> client). WindowID -1 closes whatever is open.
type ContainerCloseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WindowID        int    `json:"window_id"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
