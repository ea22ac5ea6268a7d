package actor

// InputBase is embedded into input structs to implement Input.
type InputBase struct{}

func (InputBase) isActorInput() {}

// EffectBase is embedded into effect structs to implement Effect.
type EffectBase struct{}

func (EffectBase) isActorEffect() {}
