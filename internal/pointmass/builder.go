package pointmass

import (
	"fmt"

	"rigs-and-ruin/sim"
	"rigs-and-ruin/sim/descriptor"
)

// Builder constructs point-mass actors from catalog descriptors.
type Builder struct {
	catalog *descriptor.Catalog
	stream  streamFunc

	nextStreamID int32
}

// BuilderConfig carries the builder's collaborators.
type BuilderConfig struct {
	Catalog *descriptor.Catalog
	// Stream publishes outbound state payloads for streamed actors; optional.
	Stream func(streamID int32, payload []byte)
}

func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{
		catalog:      cfg.Catalog,
		stream:       cfg.Stream,
		nextStreamID: 1,
	}
}

// Build satisfies the manager's construction dependency.
func (b *Builder) Build(slot int, req sim.SpawnRequest) (*sim.Actor, error) {
	desc, ok := b.catalog.Lookup(req.Descriptor)
	if !ok {
		return nil, fmt.Errorf("unknown descriptor %q", req.Descriptor)
	}

	body := newBody(desc, req.Position, b.stream)
	actor := &sim.Actor{
		State: sim.StateSimulated,
		Core:  body,

		Aircraft:              desc.Aircraft,
		Rescuer:               desc.Rescuer,
		CollisionRelevant:     desc.CollisionRelevant,
		DisableSelfCollision:  desc.DisableSelfCollision,
		DisableActorCollision: desc.DisableActorCollision,
	}

	if req.Networked {
		actor.NetSourceID = req.SourceID
		actor.NetStreamID = req.StreamID
	} else if desc.Streamed {
		actor.UsesNetworking = true
		actor.NetStreamID = b.nextStreamID
		b.nextStreamID++
	}

	body.bind(actor)
	return actor, nil
}

// HasAsset reports whether the named descriptor is loadable locally.
func (b *Builder) HasAsset(name string) bool {
	return b.catalog.Has(name)
}
