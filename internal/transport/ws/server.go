package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"foundry.ai/internal/foundry/engine"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/platform/logger"
	"foundry.ai/internal/protocol"
)

// Engine is the part of the crafting engine the transport serves.
type Engine interface {
	CraftItem(ctx context.Context, req engine.CraftRequest) (string, error)
	InstallModule(ctx context.Context, callerID, carrierID, moduleID, stationID string) error
	UninstallModule(ctx context.Context, callerID, carrierID, moduleID, stationID string) error
	GetCraftingCount(ctx context.Context, stationID string) (int, int64, error)
	GetCraftingMultiplier(ctx context.Context, stationID string) (int, error)
	GetInstalledModules(ctx context.Context, carrierID string) ([]engine.InstalledModule, error)
	GetItem(ctx context.Context, itemID string) (model.Item, error)
	GetStationItems(ctx context.Context, stationID string) ([]model.Item, error)
}

type Server struct {
	eng       Engine
	validator *protocol.Validator
	catalogs  protocol.CatalogDigests
	log       *logger.Logger

	upgrader websocket.Upgrader
}

func NewServer(eng Engine, v *protocol.Validator, digests protocol.CatalogDigests, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		eng:       eng,
		validator: v,
		catalogs:  digests,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		callerID, sessionID := s.handshake(conn)
		if callerID == "" {
			return
		}
		log := s.log.With("session", sessionID, "caller", callerID)
		log.Info("session opened")
		defer log.Info("session closed")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 16)
		done := make(chan struct{})
		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Requests of one session run in arrival order.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			resp := s.handle(ctx, callerID, msg)
			if resp.Code == protocol.ErrInternal {
				log.Error("request failed", "ref", resp.Ref)
			}
			b, err := json.Marshal(resp)
			if err != nil {
				log.Error("encode response", "err", err)
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
	}
}

func (s *Server) handshake(conn *websocket.Conn) (callerID, sessionID string) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", ""
	}
	if err := s.validator.ValidateHello(msg); err != nil {
		closeWith(conn, "bad HELLO")
		return "", ""
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return "", ""
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", ""
	}

	sessionID = uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		CallerID:        hello.CallerID,
		Catalogs:        s.catalogs,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", ""
	}
	return hello.CallerID, sessionID
}

func (s *Server) handle(ctx context.Context, callerID string, msg []byte) protocol.RespMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.Resp("", nil, protocol.Errorf(protocol.ErrProtoBadRequest, "invalid json"))
	}
	if base.Type != protocol.TypeReq {
		return protocol.Resp("", nil, protocol.Errorf(protocol.ErrProtoBadRequest, "unexpected message type %q", base.Type))
	}
	var req protocol.ReqMsg
	decodeErr := json.Unmarshal(msg, &req)
	if err := s.validator.ValidateReq(msg); err != nil {
		return protocol.Resp(req.ID, nil, err)
	}
	if decodeErr != nil {
		return protocol.Resp(req.ID, nil, protocol.Errorf(protocol.ErrProtoBadRequest, "decode request: %v", decodeErr))
	}
	if req.ProtocolVersion != protocol.Version {
		return protocol.Resp(req.ID, nil, protocol.Errorf(protocol.ErrProtoBadRequest, "bad protocol_version"))
	}
	result, err := s.dispatch(ctx, callerID, req)
	return protocol.Resp(req.ID, result, err)
}

func (s *Server) dispatch(ctx context.Context, callerID string, req protocol.ReqMsg) (any, error) {
	switch req.Op {
	case protocol.OpCraft:
		id, err := s.eng.CraftItem(ctx, engine.CraftRequest{
			CallerID:  callerID,
			StationID: req.StationID,
			Role:      model.Role(req.Role),
			Resources: req.Resources,
			Biome:     model.Biome(req.Biome),
		})
		if err != nil {
			return nil, err
		}
		return protocol.CraftResult{ItemID: id}, nil
	case protocol.OpInstall:
		return nil, s.eng.InstallModule(ctx, callerID, req.CarrierID, req.ModuleID, req.StationID)
	case protocol.OpUninstall:
		return nil, s.eng.UninstallModule(ctx, callerID, req.CarrierID, req.ModuleID, req.StationID)
	case protocol.OpCraftCount:
		n, last, err := s.eng.GetCraftingCount(ctx, req.StationID)
		if err != nil {
			return nil, err
		}
		return protocol.CraftCountResult{Count: n, LastCraftAt: last}, nil
	case protocol.OpMultiplier:
		pct, err := s.eng.GetCraftingMultiplier(ctx, req.StationID)
		if err != nil {
			return nil, err
		}
		return protocol.MultiplierResult{Percent: pct}, nil
	case protocol.OpInstalled:
		return s.eng.GetInstalledModules(ctx, req.CarrierID)
	case protocol.OpItem:
		return s.eng.GetItem(ctx, req.ItemID)
	case protocol.OpStationItems:
		return s.eng.GetStationItems(ctx, req.StationID)
	default:
		return nil, protocol.Errorf(protocol.ErrProtoBadRequest, "unknown op %q", req.Op)
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
