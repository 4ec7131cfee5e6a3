package core

import "sync"

// ApplicationModule is the callback surface an application that owns a
// channel implements so the packet engine can hand it received packets,
// acknowledgements, and timeouts as synchronous sub-calls: module failure
// aborts the enclosing message.
type ApplicationModule interface {
	// OnRecvPacket is called after the receipt is written. A non-empty
	// returned ack is written as the acknowledgement immediately
	// (synchronous reply); an empty ack means the module will answer
	// later via MsgWriteAcknowledgement.
	OnRecvPacket(tx *Tx, packet Packet, relayer Address, relayerMsg []byte) (ack []byte, err error)
	// OnAcknowledgePacket is called after the source commitment is
	// deleted, once the counterparty's acknowledgement has been proven.
	OnAcknowledgePacket(tx *Tx, packet Packet, ack []byte, relayer Address) error
	// OnTimeoutPacket is called after the source commitment is deleted
	// because the packet's timeout was proven to have elapsed unreceived.
	OnTimeoutPacket(tx *Tx, packet Packet, relayer Address) error
}

// ModuleRegistry maps an owning port to the application module bound to
// it: one RWMutex-guarded map, looked up on every packet callback.
type ModuleRegistry struct {
	mu      sync.RWMutex
	modules map[string]ApplicationModule
}

// NewModuleRegistry returns an empty application-module registry. Ports
// with no bound module get asyncModule{}, which always defers to a later
// MsgWriteAcknowledgement and accepts ack/timeout callbacks as a no-op —
// this engine implements packet routing, not application semantics.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[string]ApplicationModule)}
}

// Bind registers mod as the application module owning port. Re-binding the
// same port overwrites the previous module, mirroring
// Registry.RegisterClientType.
func (r *ModuleRegistry) Bind(port PortId, mod ApplicationModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[string(port)] = mod
}

func (r *ModuleRegistry) lookup(port PortId) ApplicationModule {
	r.mu.RLock()
	mod, ok := r.modules[string(port)]
	r.mu.RUnlock()
	if !ok {
		return asyncModule{}
	}
	return mod
}

// asyncModule is the default module bound to any port that never
// registered one.
type asyncModule struct{}

func (asyncModule) OnRecvPacket(*Tx, Packet, Address, []byte) ([]byte, error) { return nil, nil }
func (asyncModule) OnAcknowledgePacket(*Tx, Packet, []byte, Address) error    { return nil }
func (asyncModule) OnTimeoutPacket(*Tx, Packet, Address) error                { return nil }
