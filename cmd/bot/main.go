package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"craftguard/internal/protocol"
	"craftguard/internal/sim/item"
	"craftguard/internal/sim/transaction"
)

// bot crafts torches in a loop. With -cheat it claims twice the output the
// grid can pay for, which the server must reject.
func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "player name")
		rounds = flag.Int("rounds", 10, "craft attempts")
		cheat  = flag.Bool("cheat", false, "claim more torches than the ingredients allow")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}
	var w protocol.WelcomeMsg
	if err := readType(conn, protocol.TypeWelcome, &w); err != nil {
		logger.Fatalf("WELCOME: %v", err)
	}
	logger.Printf("WELCOME player_id=%s grid_width=%d recipes=%s", w.PlayerID, w.GridWidth, w.Catalogs.RecipesDigest)

	torches := 4
	if *cheat {
		torches = 8
	}
	var accepted, rejected int
	for i := 0; i < *rounds; i++ {
		for _, gs := range []protocol.GridSetMsg{
			{Slot: 0, Item: item.New("COAL", 0, 1)},
			{Slot: w.GridWidth, Item: item.New("STICK", 0, 1)},
		} {
			gs.Type, gs.ProtocolVersion = protocol.TypeGridSet, protocol.Version
			if err := conn.WriteJSON(gs); err != nil {
				logger.Fatalf("send GRID_SET: %v", err)
			}
		}

		craft := protocol.CraftMsg{
			Type:            protocol.TypeCraft,
			ProtocolVersion: protocol.Version,
			TxID:            fmt.Sprintf("%s-%d", *name, i),
			Actions: []transaction.SlotChange{
				{Inventory: transaction.InventoryCrafting, Slot: 0, Source: item.New("COAL", 0, 1), Target: item.Air},
				{Inventory: transaction.InventoryCrafting, Slot: w.GridWidth, Source: item.New("STICK", 0, 1), Target: item.Air},
				{Inventory: transaction.InventoryPlayer, Slot: i % 36, Source: item.Air, Target: item.New("TORCH", 0, torches)},
			},
		}
		if err := conn.WriteJSON(craft); err != nil {
			logger.Fatalf("send CRAFT: %v", err)
		}
		var res protocol.CraftResultMsg
		if err := readType(conn, protocol.TypeCraftResult, &res); err != nil {
			logger.Fatalf("CRAFT_RESULT: %v", err)
		}
		if res.Accepted {
			accepted++
		} else {
			rejected++
			logger.Printf("tx=%s rejected code=%s %s", res.TxID, res.Code, res.Message)
		}
	}
	logger.Printf("done accepted=%d rejected=%d", accepted, rejected)
}

// readType skips frames until one of the wanted type arrives.
func readType(conn *websocket.Conn, want string, v any) error {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case want:
			return json.Unmarshal(msg, v)
		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			return fmt.Errorf("%s: %s", e.Code, e.Message)
		}
	}
}
