package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"craftguard/internal/protocol"
	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/recipes"
	"craftguard/internal/sim/tuning"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	reg, err := recipes.FromCatalog(cats.Recipes)
	if err != nil {
		t.Fatalf("FromCatalog: %v", err)
	}
	srv := NewServer(Config{
		Validator: crafting.NewValidator(reg),
		Catalogs:  cats,
		Tuning:    tuning.Defaults(),
	}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, doc string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(doc)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn, v any) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != nil {
		if err := json.Unmarshal(msg, v); err != nil {
			t.Fatalf("unmarshal %s: %v", base.Type, err)
		}
	}
	return base.Type
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, `{"type":"HELLO","protocol_version":"1.0","player_name":"steve"}`)
	var w protocol.WelcomeMsg
	if typ := recv(t, conn, &w); typ != protocol.TypeWelcome {
		t.Fatalf("expected WELCOME, got %s", typ)
	}
	return w
}

const torchGrid = `{"type":"GRID_SET","protocol_version":"1.0","slot":0,"item":{"item":"COAL","count":1}}`
const stickGrid = `{"type":"GRID_SET","protocol_version":"1.0","slot":2,"item":{"item":"STICK","count":1}}`

func craftDoc(torches string) string {
	return `{"type":"CRAFT","protocol_version":"1.0","tx_id":"t1","actions":[
	  {"inventory":"crafting","slot":0,"source":{"item":"COAL","count":1},"target":{"item":"AIR","count":0}},
	  {"inventory":"crafting","slot":2,"source":{"item":"STICK","count":1},"target":{"item":"AIR","count":0}},
	  {"inventory":"player","slot":0,"source":{"item":"AIR","count":0},"target":{"item":"TORCH","count":` + torches + `}}
	]}`
}

func TestServer_WelcomeCarriesDigests(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	w := hello(t, conn)
	if w.PlayerID == "" || w.GridWidth != 2 || w.MaxIterations != crafting.MaxIterations {
		t.Fatalf("unexpected welcome %+v", w)
	}
	if w.Catalogs.RecipesDigest == "" || w.Catalogs.ItemPalette.Count == 0 {
		t.Fatalf("missing digests %+v", w.Catalogs)
	}
}

func TestServer_CraftAcceptedAndRejected(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	hello(t, conn)

	send(t, conn, torchGrid)
	send(t, conn, stickGrid)

	// Claiming 8 torches from one coal and one stick.
	send(t, conn, craftDoc("8"))
	if typ := recv(t, conn, nil); typ != protocol.TypeContainerClose {
		t.Fatalf("expected CONTAINER_CLOSE, got %s", typ)
	}
	var res protocol.CraftResultMsg
	if typ := recv(t, conn, &res); typ != protocol.TypeCraftResult {
		t.Fatalf("expected CRAFT_RESULT, got %s", typ)
	}
	if res.Accepted || res.Code != protocol.ErrInsufficientIngredients || res.TxID != "t1" {
		t.Fatalf("unexpected result %+v", res)
	}

	send(t, conn, craftDoc("4"))
	res = protocol.CraftResultMsg{}
	if typ := recv(t, conn, &res); typ != protocol.TypeCraftResult {
		t.Fatalf("expected CRAFT_RESULT, got %s", typ)
	}
	if !res.Accepted || res.RecipeID != "torch" || res.Iterations != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestServer_RejectsBadFrames(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	hello(t, conn)

	send(t, conn, `{"type":"CRAFT","protocol_version":"0.1","actions":[]}`)
	var e protocol.ErrorMsg
	if typ := recv(t, conn, &e); typ != protocol.TypeError || e.Code != protocol.ErrProtoVersion {
		t.Fatalf("expected version error, got %s %+v", typ, e)
	}

	send(t, conn, `{"type":"GRID_SET","protocol_version":"1.0","slot":7,"item":{"item":"COAL"}}`)
	e = protocol.ErrorMsg{}
	if typ := recv(t, conn, &e); typ != protocol.TypeError || e.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("expected bad request for out-of-range slot, got %s %+v", typ, e)
	}
}

func TestServer_RequiresHello(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	send(t, conn, craftDoc("4"))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}
