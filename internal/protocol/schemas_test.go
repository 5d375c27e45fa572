package protocol_test

import (
	"testing"

	"foundry.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	if err := v.ValidateHello([]byte(`{"type":"HELLO","protocol_version":"1.0","caller_id":"player-1"}`)); err != nil {
		t.Fatalf("hello: %v", err)
	}

	good := []string{
		`{"type":"REQ","protocol_version":"1.0","id":"r1","op":"CRAFT","station_id":"S1","role":"ENGINE","biome":1,
		  "resources":[{"kind":"ALLOY","amount":60},{"kind":"FUEL","amount":25}]}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r2","op":"INSTALL","station_id":"S1","carrier_id":"I1","module_id":"I2"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r3","op":"UNINSTALL","station_id":"S1","carrier_id":"I1","module_id":"I2"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r4","op":"CRAFT_COUNT","station_id":"S1"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r5","op":"MULTIPLIER","station_id":"S1"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r6","op":"INSTALLED","carrier_id":"I1"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r7","op":"ITEM","item_id":"I1"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r8","op":"STATION_ITEMS","station_id":"S1"}`,
	}
	for _, raw := range good {
		if err := v.ValidateReq([]byte(raw)); err != nil {
			t.Fatalf("valid req rejected: %v\n%s", err, raw)
		}
	}
}

func TestSchemas_RejectMalformed(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	bad := []string{
		`{"type":"HELLO","protocol_version":"1.0","caller_id":""}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r1","op":"BURN","item_id":"I1"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r1","op":"CRAFT","station_id":"S1","role":"ENGINE"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r1","op":"INSTALL","station_id":"S1","carrier_id":"I1"}`,
		`{"type":"REQ","protocol_version":"1.0","id":"r1","op":"CRAFT","station_id":"S1","role":"ENGINE","resources":[{"kind":"ALLOY","amount":-1}]}`,
		`not json`,
	}
	for i, raw := range bad {
		var err error
		if i == 0 {
			err = v.ValidateHello([]byte(raw))
		} else {
			err = v.ValidateReq([]byte(raw))
		}
		if !protocol.IsCode(err, protocol.ErrProtoBadRequest) {
			t.Fatalf("case %d: expected bad request, got %v", i, err)
		}
	}
}

func TestResp(t *testing.T) {
	ok := protocol.Resp("r1", protocol.CraftResult{ItemID: "I1"}, nil)
	if !ok.OK || ok.Code != "" || ok.Ref != "r1" {
		t.Fatalf("ok resp = %+v", ok)
	}
	fail := protocol.Resp("r2", nil, protocol.Errorf(protocol.ErrNotOwner, "caller p2 does not own S1"))
	if fail.OK || fail.Code != protocol.ErrNotOwner {
		t.Fatalf("fail resp = %+v", fail)
	}
}
