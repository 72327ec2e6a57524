package protocol_test

import (
	"encoding/json"
	"testing"

	"craftguard/internal/protocol"
	"craftguard/internal/sim/item"
	"craftguard/internal/sim/transaction"
)

func TestValidateInbound_Samples(t *testing.T) {
	ok := map[string]string{
		protocol.TypeHello:   `{"type":"HELLO","protocol_version":"1.0","player_name":"steve","bench":true}`,
		protocol.TypeGridSet: `{"type":"GRID_SET","protocol_version":"1.0","slot":2,"item":{"item":"STICK","count":4}}`,
		protocol.TypeCraft: `{
		  "type":"CRAFT",
		  "protocol_version":"1.0",
		  "tx_id":"t1",
		  "actions":[
		    {"inventory":"crafting","slot":0,"source":{"item":"COAL","count":1},"target":{"item":"AIR","count":0}},
		    {"inventory":"player","slot":3,"source":{"item":"AIR","count":0},"target":{"item":"TORCH","count":4}}
		  ]
		}`,
	}
	for typ, doc := range ok {
		if err := protocol.ValidateInbound(typ, []byte(doc)); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}

	bad := map[string]string{
		protocol.TypeHello:   `{"type":"HELLO"}`,
		protocol.TypeGridSet: `{"type":"GRID_SET","protocol_version":"1.0","slot":9,"item":{"item":"STICK"}}`,
		protocol.TypeCraft:   `{"type":"CRAFT","protocol_version":"1.0","actions":[{"inventory":"chest","slot":0,"source":{"item":"AIR"},"target":{"item":"AIR"}}]}`,
	}
	for typ, doc := range bad {
		if err := protocol.ValidateInbound(typ, []byte(doc)); err == nil {
			t.Fatalf("%s: expected schema error", typ)
		}
	}

	if err := protocol.ValidateInbound("OBS", []byte(`{}`)); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestCraftMsg_DecodesIntoSlotChanges(t *testing.T) {
	raw := []byte(`{"type":"CRAFT","protocol_version":"1.0","actions":[
	  {"inventory":"crafting","slot":1,"source":{"item":"COAL","damage":1,"count":2},"target":{"item":"AIR","count":0}}
	]}`)
	var m protocol.CraftMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m.Actions) != 1 {
		t.Fatalf("actions=%v", m.Actions)
	}
	a := m.Actions[0]
	if a.Inventory != transaction.InventoryCrafting || a.Slot != 1 {
		t.Fatalf("unexpected action %+v", a)
	}
	if !a.Source.Same(item.New("COAL", 1, 2)) || !a.Target.IsEmpty() {
		t.Fatalf("unexpected stacks %s -> %s", a.Source, a.Target)
	}
}
