package main

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/rudransh61/Physix-go/pkg/rigidbody"
	"github.com/rudransh61/Physix-go/pkg/vector"

	"github.com/legacyclonk/openworld-core/internal/fixmath"
	"github.com/legacyclonk/openworld-core/internal/motion"
	"github.com/legacyclonk/openworld-core/internal/shape"
)

// newPlayerShape builds the 40x40 vertex shape matching CreatePlayerObject's
// rigidbody footprint, the template every spawned player's section.Object
// shares.
func newPlayerShape() *shape.Shape {
	s := &shape.Shape{Rect: fixmath.Rect{X: -20, Y: -20, Wdt: 40, Hgt: 40}}
	s.AddVertex(shape.Vertex{X: -20, Y: -20, CNAT: shape.CNATTop | shape.CNATLeft})
	s.AddVertex(shape.Vertex{X: 20, Y: -20, CNAT: shape.CNATTop | shape.CNATRight})
	s.AddVertex(shape.Vertex{X: 20, Y: 20, CNAT: shape.CNATBottom | shape.CNATRight})
	s.AddVertex(shape.Vertex{X: -20, Y: 20, CNAT: shape.CNATBottom | shape.CNATLeft})
	s.CreateOwnOriginalCopy()
	return s
}

// velocityPerTick converts a pixels-per-second velocity component (as
// carried over the wire by PlayerInput) to the section's pixels-per-tick
// fixed-point units.
func velocityPerTick(pixelsPerSecond float64, tickRate int) fixmath.Fixed {
	if tickRate <= 0 {
		tickRate = 60
	}
	return fixmath.FromInt(int(pixelsPerSecond) / tickRate)
}

type InputProcessor struct{}

// NewInputProcessor creates a new input processor instance
func NewInputProcessor() *InputProcessor {
	return &InputProcessor{}
}

// ProcessPlayerInput handles different types of player actions
func (ip *InputProcessor) ProcessPlayerInput(gameState *GameMatchState, input *PlayerInput, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	switch input.Action {
	case "spawn":
		ip.handleSpawn(gameState, input, logger)
	case "move":
		ip.handleMovement(gameState, input, logger)
	case "interact":
		ip.handleInteract(gameState, input, dispatcher, logger)
	default:
		// logger.Debug("Unknown action: %s from player: %s", input.Action, input.PlayerID)
	}
}

// handleSpawn processes player spawn action
func (ip *InputProcessor) handleSpawn(gameState *GameMatchState, input *PlayerInput, logger runtime.Logger) {
	playerObject := ip.FindPlayerObject(gameState, input.PlayerID)
	if playerObject == nil {
		// Create new player object at spawn position
		spawnPosition := vector.Vector{X: input.X, Y: input.Y}
		if input.X == 0 && input.Y == 0 {
			// Use default spawn position if none provided
			spawnPosition = vector.Vector{X: 400, Y: 300}
		}
		ip.CreatePlayerObject(gameState, input.PlayerID, spawnPosition)
		logger.Info("Created new player object for %s at position (%f, %f)", input.PlayerID, spawnPosition.X, spawnPosition.Y)
	} else {
		// Player object already exists, update position
		if input.X != 0 || input.Y != 0 {
			playerObject.Position = vector.Vector{X: input.X, Y: input.Y}
			playerObject.Velocity = vector.Vector{X: 0, Y: 0}
			// logger.Debug("Player %s re-spawned at position (%f, %f)", input.PlayerID, input.X, input.Y)

			if simObj, ok := gameState.playerSimObjects[input.PlayerID]; ok {
				simObj.Body.X, simObj.Body.Y = int(input.X), int(input.Y)
				simObj.Body.XDir, simObj.Body.YDir = 0, 0
			}
		}
	}
}

// handleMovement processes player movement input by setting player velocity.
// The physics engine will then update the position based on this velocity and its fixed deltaTime.
func (ip *InputProcessor) handleMovement(gameState *GameMatchState, input *PlayerInput, logger runtime.Logger) {
	playerObject := ip.FindPlayerObject(gameState, input.PlayerID)
	if playerObject == nil {
		logger.Error("Player object not found for %s", input.PlayerID)
		return
	}

	// Client sends velocity (direction * speed). Set this as the player's current velocity.
	// The physics engine will use this velocity and its own fixed deltaTime for position updates.
	targetVelocity := vector.Vector{
		X: input.VelocityX,
		Y: input.VelocityY,
	}

	// Validate movement speed to prevent cheating (max speed should be reasonable)
	// This check is now on the magnitude of the raw velocity vector sent by client.
	maxSpeed := 300.0 // Maximum pixels per second
	speed := targetVelocity.Magnitude()

	if speed > maxSpeed {
		// Clamp velocity to maximum allowed
		if speed > 0 {
			scaleFactor := maxSpeed / speed
			targetVelocity.X *= scaleFactor
			targetVelocity.Y *= scaleFactor
		}
		// logger.Debug("Player %s velocity clamped from %f to %f", input.PlayerID, speed, maxSpeed)
	}

	// Set the player's velocity. The physics engine will handle position updates.
	playerObject.Velocity = targetVelocity

	// Position will be updated by the physics engine based on this new velocity.
	// Boundary checks will also be handled by the physics engine after it updates the position.

	// logger.Debug("Player %s velocity set to (%f, %f). Position will be updated by physics engine.",
	// 	input.PlayerID, playerObject.Velocity.X, playerObject.Velocity.Y)

	// Drive the deterministic core's motion.Body from the same clamped
	// velocity, so the next sec.Step() moves the player's sim object in
	// step with the preview rigidbody.
	if simObj, ok := gameState.playerSimObjects[input.PlayerID]; ok {
		simObj.Body.XDir = velocityPerTick(targetVelocity.X, gameState.cfg.TickRate)
		simObj.Body.YDir = velocityPerTick(targetVelocity.Y, gameState.cfg.TickRate)
	}
}

// FindPlayerObject finds the game object associated with a player
func (ip *InputProcessor) FindPlayerObject(gameState *GameMatchState, playerID string) *rigidbody.RigidBody {
	// Use the player objects mapping to find the player's object
	if playerObject, exists := gameState.playerObjects[playerID]; exists {
		return playerObject
	}
	return nil
}

// CreatePlayerObject creates a new game object for a joining player
func (ip *InputProcessor) CreatePlayerObject(gameState *GameMatchState, playerID string, spawnPosition vector.Vector) *rigidbody.RigidBody {
	playerObject := &rigidbody.RigidBody{
		Position:  spawnPosition,
		Velocity:  vector.Vector{X: 0, Y: 0},
		Mass:      10.0,
		Shape:     "rectangle",
		Width:     40,
		Height:    40,
		IsMovable: true,
	}

	// Register player object using game state helper to ensure thread-safety and consistent indices
	gameState.AddPlayerObject(playerID, playerObject)

	// Give the player a deterministic-core object (shape + motion body +
	// sector membership + arena handle) alongside the preview rigidbody,
	// so sec.Step()'s per-tick motion/sector pass actually simulates them.
	if gameState.sec != nil {
		body := motion.Body{X: int(spawnPosition.X), Y: int(spawnPosition.Y), Rotatable: false}
		simObj := gameState.sec.SpawnObject(newPlayerShape(), body)
		gameState.AddPlayerSimObject(playerID, simObj)
	}

	return playerObject
}

// RemovePlayerObject removes a player's game object when they leave
func (ip *InputProcessor) RemovePlayerObject(gameState *GameMatchState, playerID string) {
	// Use game state helper to remove player object and cleanup
	gameState.RemovePlayerObject(playerID)
}

func (ip *InputProcessor) handleInteract(gameState *GameMatchState, input *PlayerInput, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if gameState.currentMap == nil && input.ObjectID != 0 {
		return
	}
	obj := gameState.objects[input.ObjectID]
	if obj == nil {
		logger.Warn("interact: unknown object id %d", input.ObjectID)
		return
	}
	// log object properties
	logger.Info("interact: object %d properties: %+v", input.ObjectID, obj.Props)
	scriptPathAny := obj.Props["script"]
	scriptPath, _ := scriptPathAny.(string)
	if scriptPath == "" {
		logger.Warn("interact: object %d has no 'script' property", input.ObjectID)
		return
	}
	// Execute script
	params := map[string]any{
		"playerId": input.PlayerID,
		"objectId": input.ObjectID,
		"event":    input.Action,
		"gid":      obj.GID,
	}

	// Build a serializable object state map to pass to scripts (includes runtime properties)
	objectState := map[string]any{
		"id":    obj.ID,
		"name":  obj.Name,
		"type":  obj.Type,
		"gid":   obj.GID,
		"props": obj.Props,
	}
	params["object"] = objectState

	effects, err := gameState.scriptEngine.Execute(scriptPath, params, gameState, dispatcher)
	if err != nil {
		logger.Error("interact script error for object %d: %v", input.ObjectID, err)
		return
	}
	if len(effects) == 0 {
		return
	}

	// go through effects and log them
	for _, effect := range effects {
		if effect.AckMessage != "" {
			logger.Info("interact: object %d effect: ACK message: %s", input.ObjectID, effect.AckMessage)
		}
	}
}
