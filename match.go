package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/rudransh61/Physix-go/pkg/rigidbody"
	"github.com/rudransh61/Physix-go/pkg/vector"

	"github.com/legacyclonk/openworld-core/internal/config"
	"github.com/legacyclonk/openworld-core/internal/message"
	"github.com/legacyclonk/openworld-core/internal/scheduler"
	"github.com/legacyclonk/openworld-core/internal/section"
)

// OpCode constants for different message types
const (
	OpCodeWorldState   = 1 // Initial world state for new players
	OpCodeWorldUpdate  = 2 // Regular world state updates
	OpCodeMapChange    = 3 // Map change notifications
	OpCodeInputACK     = 4 // Input acknowledgments
	OpCodeObjectUpdate = 5 // Interaction notifications (e.g., item pickups)
)

type GameMatch struct{}

// GameMatchState is the per-match root: Physix-go/Nakama fields drive the
// client-visible preview/broadcast path, while sec holds the deterministic
// simulation core (landscape, particles, solid masks, messages) that the
// root match loop steps every tick alongside the physics preview.
type GameMatchState struct {
	presences          map[string]runtime.Presence
	objects            map[int]*ObjectData
	gameObjects        []*rigidbody.RigidBody
	playerObjects      map[string]*rigidbody.RigidBody
	currentTick        int64
	inputProcessor     *InputProcessor
	physicsEngine      *PhysicsEngine
	databaseManager    *DatabaseManager
	mapLoader          *MapLoader
	currentMap         *LoadedMap
	scriptEngine       *ScriptEngine
	sec                *section.Section
	cfg                config.Section
	mu                 sync.Mutex
	gameObjectsByOwner map[int][]*rigidbody.RigidBody // map from object ID -> colliders owned by that object (authoritative owner index)
	rbOwner            map[*rigidbody.RigidBody]int   // reverse lookup from rigid body pointer -> owner object id (helps cleanup)
	playerSimObjects   map[string]*section.Object      // player id -> its deterministic-core shape/motion object
}

type GameMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type PlayerInput struct {
	PlayerID      string  `json:"playerId"`
	ObjectID      int     `json:"objectId,omitempty"`
	Action        string  `json:"action"`
	InputSequence uint64  `json:"inputSequence"`       // Added
	X             float64 `json:"x,omitempty"`         // For direct position (spawn/teleport)
	Y             float64 `json:"y,omitempty"`         // For direct position (spawn/teleport)
	VelocityX     float64 `json:"velocityX,omitempty"` // For movement vector
	VelocityY     float64 `json:"velocityY,omitempty"` // For movement vector
	DeltaTime     float64 `json:"deltaTime,omitempty"` // Time delta for movement calculation
}

// ACK response structure
type InputACK struct {
	PlayerID      string  `json:"playerId"`
	Action        string  `json:"action"`
	InputSequence uint64  `json:"inputSequence"` // Added
	Approved      bool    `json:"approved"`
	Reason        string  `json:"reason,omitempty"`
	Timestamp     int64   `json:"timestamp"`
	X             float64 `json:"x,omitempty"` // Server authoritative position
	Y             float64 `json:"y,omitempty"` // Server authoritative position
}

type GameState struct {
	Tick        int64                  `json:"tick"`
	GameObjects []*rigidbody.RigidBody `json:"gameObjects"`
	Players     map[string]PlayerData  `json:"players"`
}

type ObjectData struct {
	ID    int
	Name  string
	Type  string
	GID   uint32
	Props map[string]interface{}
}

type PlayerData struct {
	SessionID string   `json:"sessionId"`
	UserID    string   `json:"userId"`
	Username  string   `json:"username"`
	Position  Position `json:"position"`
}

// Position represents a 2D position with lowercase JSON field names for client compatibility
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToPosition converts a vector.Vector to Position for JSON serialization
func ToPosition(v vector.Vector) Position {
	return Position{
		X: v.X,
		Y: v.Y,
	}
}

// ToVector converts a Position back to vector.Vector for physics calculations
func (p Position) ToVector() vector.Vector {
	return vector.Vector{
		X: p.X,
		Y: p.Y,
	}
}

// defaultMaterials seeds the deterministic landscape's material table;
// MatchInit then registers reactions between these materials with
// sec.AddReaction.
func defaultMaterials() []section.Material {
	return []section.Material{
		{Name: "Sky"},
		{Name: "Ground", DensityVal: 100, FrictionVal: 50},
		{Name: "Water", DensityVal: 20, FrictionVal: 5},
		{Name: "Lava", DensityVal: 40, FrictionVal: 5},
	}
}

func (m *GameMatch) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	cfg := config.Default().WithOverrides(params)

	// Create all required components
	physicsEngine := NewPhysicsEngine(cfg)
	mapLoader := NewMapLoader(logger, cfg.MapRoot)

	// Connect the physics engine to the map loader
	mapLoader.SetPhysicsEngine(physicsEngine)

	sec := section.New(cfg, defaultMaterials())
	// Water particles sitting in lava deactivate, grounded in spec §4.G/S5.
	sec.AddReaction(3, 2)
	loadSectionTextures(sec, cfg, logger)

	scriptEngine := NewScriptEngine(logger, cfg.ScriptRoot)
	if cfg.HotReloadScripts {
		if err := scriptEngine.EnableHotReload(); err != nil {
			logger.Warn("Failed to enable script hot reload: %v", err)
		}
	}

	state := &GameMatchState{
		presences:       make(map[string]runtime.Presence),
		objects:         make(map[int]*ObjectData),
		gameObjects:     make([]*rigidbody.RigidBody, 0),
		playerObjects:   make(map[string]*rigidbody.RigidBody),
		currentTick:     0,
		inputProcessor:  NewInputProcessor(),
		physicsEngine:   physicsEngine,
		databaseManager: NewDatabaseManager(logger, nk),
		mapLoader:       mapLoader,
		currentMap:      nil,
		scriptEngine:    scriptEngine,
		sec:             sec,
		cfg:             cfg,
		// map from object ID -> colliders owned by that object (authoritative owner index)
		gameObjectsByOwner: make(map[int][]*rigidbody.RigidBody),
		// reverse lookup from rigid body pointer -> owner object id (helps cleanup)
		rbOwner:          make(map[*rigidbody.RigidBody]int),
		playerSimObjects: make(map[string]*section.Object),
	}

	loadedMap, err := state.mapLoader.LoadMap(cfg.DefaultMap)
	if err != nil {
		panic(fmt.Sprintf("Failed to load default map %s: %v", cfg.DefaultMap, err))
	} else {
		state.currentMap = loadedMap
		state.mapLoader.ApplyMapToGameState(loadedMap, state)
		logger.Info("Loaded map: %s", cfg.DefaultMap)
	}

	logger.Debug("Debug state after initialization: %d game objects, %d player objects", len(state.gameObjects), len(state.playerObjects))

	// Try to restore world state from persistent storage
	if err := state.databaseManager.RestoreWorldFromPersistence(ctx, state); err != nil {
		logger.Error("Failed to restore world from persistence: %v", err)
		// Continue with default initialization
	}

	label := "open_world_game"

	logger.Info("Open world game match initialized - always active with persistent storage")

	return state, cfg.TickRate, label
}

// loadSectionTextures binds the section's texture table against an
// optional "textures.txt" alongside the map root; a missing file just
// leaves the table empty (sky-only), same as a scenario with no custom
// tile textures.
func loadSectionTextures(sec *section.Section, cfg config.Section, logger runtime.Logger) {
	path := filepath.Join(cfg.MapRoot, "textures.txt")
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	if err := sec.LoadTextures(f); err != nil {
		logger.Warn("Failed to load texture table %s: %v", path, err)
	}
}

func (m *GameMatch) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	gameState, ok := state.(*GameMatchState)
	if !ok {
		logger.Error("state not a valid game state object")
		return nil
	}

	for _, presence := range presences {
		gameState.presences[presence.GetUserId()] = presence
		logger.Info("Player joined open world: %s", presence.GetUsername())

		// Try to load player's saved position and data
		playerData, err := gameState.databaseManager.LoadPlayerData(ctx, presence.GetUserId())
		if err != nil {
			logger.Error("Failed to load player data for %s: %v", presence.GetUsername(), err)
		}

		// Use saved position if available, otherwise use map spawn point
		spawnPosition := vector.Vector{X: 100, Y: 100} // Default fallback
		if playerData != nil {
			spawnPosition = playerData.Position
			logger.Info("Restored player %s to saved position (%f, %f)", presence.GetUsername(), spawnPosition.X, spawnPosition.Y)
		} else if gameState.currentMap != nil {
			// Use map spawn point for new players
			spawnPosition = gameState.mapLoader.GetRandomSpawnPoint(gameState.currentMap)
			logger.Info("Spawning new player %s at map spawn point (%f, %f)", presence.GetUsername(), spawnPosition.X, spawnPosition.Y)
		}

		// Create player object for new player
		gameState.inputProcessor.CreatePlayerObject(gameState, presence.GetUserId(), spawnPosition)

		gameState.sec.Messages.Add(message.NewMessage(message.ScopeGlobal, nil, 0,
			fmt.Sprintf("%s joined the world", presence.GetUsername()), gameState.sec.Frame(), 180))
	}

	// Send current world state to new players
	worldData := map[string]interface{}{
		"playerCount": len(gameState.presences),
		"gameObjects": gameState.gameObjects,
	}

	// Include map information if available
	if gameState.currentMap != nil {
		worldData["mapInfo"] = gameState.mapLoader.GetMapInfo(gameState.currentMap)
	}

	message := GameMessage{
		Type: "world_state",
		Data: worldData,
	}

	data, _ := json.Marshal(message)
	dispatcher.BroadcastMessage(OpCodeWorldState, data, nil, nil, true)

	return gameState
}

func (m *GameMatch) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	gameState, ok := state.(*GameMatchState)
	if !ok {
		logger.Error("state not a valid game state object")
		return nil, false, "Internal server error"
	}

	// Open world - allow all players to join
	return gameState, true, ""
}

func (m *GameMatch) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	gameState, ok := state.(*GameMatchState)
	if !ok {
		logger.Error("state not a valid game state object")
		return nil
	}

	for _, presence := range presences {
		// Save player data before they leave
		if playerObj := gameState.inputProcessor.FindPlayerObject(gameState, presence.GetUserId()); playerObj != nil {
			if err := gameState.databaseManager.SavePlayerData(ctx, presence, playerObj.Position, playerObj.Velocity); err != nil {
				logger.Error("Failed to save player data for %s: %v", presence.GetUsername(), err)
			} else {
				logger.Info("Saved player data for %s at position (%f, %f)", presence.GetUsername(), playerObj.Position.X, playerObj.Position.Y)
			}
		}

		delete(gameState.presences, presence.GetUserId())
		logger.Info("Player left open world: %s", presence.GetUsername())

		// Remove player object when they leave
		gameState.inputProcessor.RemovePlayerObject(gameState, presence.GetUserId())
	}

	// Open world continues running regardless of player count
	return gameState
}

func (m *GameMatch) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	gameState, ok := state.(*GameMatchState)

	if !ok {
		logger.Error("state not a valid game state object")
		return nil
	}

	if err := gameState.databaseManager.PeriodicSave(ctx, gameState); err != nil {
		logger.Error("Failed to perform final save during termination: %v", err)
	} else {
		logger.Info("Final world state and player data saved successfully during termination")
	}

	if err := gameState.scriptEngine.Close(); err != nil {
		logger.Warn("Failed to close script engine watcher: %v", err)
	}

	logger.Info("Open world match terminating - all data saved")

	return gameState
}

func (m *GameMatch) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	gameState, ok := state.(*GameMatchState)

	if !ok {
		logger.Error("state not a valid game state object")
		return nil, "Internal server error"
	}

	logger.Info("Open world match signal received: %s", data)

	// Handle map change signals
	var signal map[string]interface{}
	_ = json.Unmarshal([]byte(data), &signal)
	// No signals supported yet.
	return gameState, ""
}

func (m *GameMatch) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	gameState, ok := state.(*GameMatchState)
	if !ok {
		logger.Error("state not a valid game state object")
		return nil
	}

	gameState.currentTick = tick

	// Decode this tick's control packets once; every phase below reads
	// from this slice instead of re-parsing the raw match data.
	inputs := make([]*PlayerInput, 0, len(messages))
	for _, msg := range messages {
		var input PlayerInput
		if err := json.Unmarshal(msg.GetData(), &input); err != nil {
			logger.Error("Failed to unmarshal player input: %v", err)
			continue
		}
		if input.PlayerID == "" {
			input.PlayerID = msg.GetUserId()
		}
		inputs = append(inputs, &input)
	}

	// §4.M's fixed tick order: control packets are already pulled above;
	// script dispatch and movement are fused into one phase because the
	// teacher's input processor already applies a player's script
	// interactions and velocity update from the same call, then
	// particles/messages, then the snapshot phase (ACKs + broadcast).
	sched := scheduler.New(
		scheduler.TickableFunc(func(int64) {
			for _, input := range inputs {
				gameState.inputProcessor.ProcessPlayerInput(gameState, input, dispatcher, logger)
			}
		}),
		scheduler.TickableFunc(func(int64) {
			gameState.physicsEngine.UpdatePhysics(gameState, logger)
		}),
		scheduler.TickableFunc(func(int64) {
			gameState.sec.Step()
		}),
		scheduler.TickableFunc(func(int64) {
			for _, input := range inputs {
				playerObject := gameState.inputProcessor.FindPlayerObject(gameState, input.PlayerID)
				if playerObject == nil {
					continue
				}
				// The deterministic core's sim object (when the player has
				// one) is authoritative; the Physix-go rigidbody otherwise
				// stands in as the client-preview position.
				ackX, ackY := playerObject.Position.X, playerObject.Position.Y
				if simObj, ok := gameState.playerSimObjects[input.PlayerID]; ok {
					x, y := simObj.Pos()
					ackX, ackY = float64(x), float64(y)
				}
				ack := InputACK{
					PlayerID:      input.PlayerID,
					Action:        input.Action,
					InputSequence: input.InputSequence,
					Approved:      true, // Assuming input is always approved for now
					Timestamp:     tick, // Or a more precise server timestamp
					X:             ackX,
					Y:             ackY,
				}
				ackMessage := GameMessage{
					Type: "input_ack",
					Data: ack,
				}
				ackData, err := json.Marshal(ackMessage)
				if err != nil {
					logger.Error("Failed to marshal InputACK: %v", err)
					continue
				}
				if presence, ok := gameState.presences[input.PlayerID]; ok {
					dispatcher.BroadcastMessage(OpCodeInputACK, ackData, []runtime.Presence{presence}, nil, true)
				}
			}
		}),
	)
	sched.Tick()

	// Broadcast world state periodically (e.g., every few ticks or if changed significantly)
	if tick%2 == 0 { // Broadcast every other tick
		m.broadcastWorldState(gameState, dispatcher, logger)
	}

	// Persist world state periodically
	if tick%300 == 0 { // Every 5 seconds (300 ticks / 60hz)
		if err := gameState.databaseManager.PeriodicSave(ctx, gameState); err != nil {
			logger.Error("Failed to persist world state: %v", err)
		}
	}

	return gameState
}

func (m *GameMatch) broadcastWorldState(gameState *GameMatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Construct player data for all current presences
	playersData := make(map[string]PlayerData)
	for userID, presence := range gameState.presences {
		playerObj := gameState.inputProcessor.FindPlayerObject(gameState, userID)
		if playerObj != nil {
			playersData[userID] = PlayerData{
				SessionID: presence.GetSessionId(),
				UserID:    userID,
				Username:  presence.GetUsername(),
				Position:  ToPosition(playerObj.Position),
			}
		} else {
			// Player might have just joined and object not fully synced, or an error occurred
			logger.Warn("Player object not found for broadcasting state for UserID: %s", userID)
		}
	}

	// Prepare game state for broadcasting
	worldState := GameState{
		Tick:        gameState.currentTick,
		GameObjects: gameState.gameObjects,
		Players:     playersData,
	}

	overlay := gameState.sec.Messages.Visible(0)
	overlayTexts := make([]string, 0, len(overlay))
	for _, msg := range overlay {
		overlayTexts = append(overlayTexts, msg.Text)
	}

	message := GameMessage{
		Type: "world_update",
		Data: map[string]interface{}{
			"state":    worldState,
			"overlays": overlayTexts,
		},
	}

	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal world state: %v", err)
		return
	}

	dispatcher.BroadcastMessage(OpCodeWorldUpdate, data, nil, nil, true) // Broadcast to all
}

func initializeGameObjects() []*rigidbody.RigidBody {
	return []*rigidbody.RigidBody{}
}

// CreateDefaultMatch creates a default open world match that's always available
func CreateDefaultMatch(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) (string, error) {
	logger.Info("Creating default open world match")

	// Create match parameters
	params := map[string]interface{}{
		"map": config.Default().DefaultMap,
	}

	// Create the match using the "game" module
	matchId, err := nk.MatchCreate(ctx, "game", params)
	if err != nil {
		return "", fmt.Errorf("failed to create default match: %v", err)
	}

	logger.Info("Default open world match created: %s", matchId)
	return matchId, nil
}

// EnsureDefaultMatch ensures there's always at least one open world match available
func EnsureDefaultMatch(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) error {
	// List existing matches
	matches, err := nk.MatchList(ctx, 10, true, "open_world_game", nil, nil, "")
	if err != nil {
		logger.Error("Failed to list matches: %v", err)
		return err
	}

	// If no matches exist, create one
	if len(matches) == 0 {
		_, err := CreateDefaultMatch(ctx, nk, logger)
		return err
	}

	logger.Info("Found %d existing open world matches", len(matches))
	return nil
}

// AddOwnerCollider adds a collider to the physics slice and records ownership.
// If polygonPoints is non-nil and non-empty, the polygon will be registered with the physics engine.
func (gs *GameMatchState) AddOwnerCollider(owner int, rb *rigidbody.RigidBody, polygonPoints []vector.Vector) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.gameObjects = append(gs.gameObjects, rb)
	gs.gameObjectsByOwner[owner] = append(gs.gameObjectsByOwner[owner], rb)
	gs.rbOwner[rb] = owner

	if gs.physicsEngine != nil && len(polygonPoints) > 0 {
		AddPolygonToPhysicsEngine(gs.physicsEngine, rb, polygonPoints)
	}
}

// RemoveOwnerColliders removes all colliders owned by the given object and cleans up physics registry.
func (gs *GameMatchState) RemoveOwnerColliders(owner int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	toRemove := make(map[*rigidbody.RigidBody]bool)
	for _, rb := range gs.gameObjectsByOwner[owner] {
		toRemove[rb] = true
		if gs.physicsEngine != nil {
			delete(gs.physicsEngine.polygonRegistry, rb)
		}
		delete(gs.rbOwner, rb)
	}

	// filter gameObjects
	newList := make([]*rigidbody.RigidBody, 0, len(gs.gameObjects))
	for _, gobj := range gs.gameObjects {
		if !toRemove[gobj] {
			newList = append(newList, gobj)
		}
	}
	gs.gameObjects = newList
	delete(gs.gameObjectsByOwner, owner)
}

// AddStaticCollider adds a collider to gameObjects without assigning an owner.
// polygonPoints may be provided to register polygon shapes with the physics engine.
func (gs *GameMatchState) AddStaticCollider(rb *rigidbody.RigidBody, polygonPoints []vector.Vector) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.gameObjects = append(gs.gameObjects, rb)
	if gs.physicsEngine != nil && len(polygonPoints) > 0 {
		AddPolygonToPhysicsEngine(gs.physicsEngine, rb, polygonPoints)
	}
}

// AddPlayerObject registers a player-owned rigid body and keeps playerObjects mapping consistent.
func (gs *GameMatchState) AddPlayerObject(playerID string, rb *rigidbody.RigidBody) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.gameObjects = append(gs.gameObjects, rb)
	if gs.playerObjects == nil {
		gs.playerObjects = make(map[string]*rigidbody.RigidBody)
	}
	gs.playerObjects[playerID] = rb
}

// RemovePlayerObject removes a player's rigidbody from gameObjects and cleans up any related registries.
func (gs *GameMatchState) RemovePlayerObject(playerID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	rb, ok := gs.playerObjects[playerID]
	if !ok || rb == nil {
		return
	}

	// remove from gameObjects slice
	for i, obj := range gs.gameObjects {
		if obj == rb {
			gs.gameObjects = append(gs.gameObjects[:i], gs.gameObjects[i+1:]...)
			break
		}
	}

	// remove from player mapping
	delete(gs.playerObjects, playerID)

	// remove polygon registry entry if present
	if gs.physicsEngine != nil {
		delete(gs.physicsEngine.polygonRegistry, rb)
	}

	// If this rigidbody was tracked in rbOwner, clean up owner indexes
	if owner, found := gs.rbOwner[rb]; found {
		// remove rb from owner's list
		list := gs.gameObjectsByOwner[owner]
		newList := make([]*rigidbody.RigidBody, 0, len(list))
		for _, r := range list {
			if r != rb {
				newList = append(newList, r)
			}
		}
		if len(newList) == 0 {
			delete(gs.gameObjectsByOwner, owner)
		} else {
			gs.gameObjectsByOwner[owner] = newList
		}
		delete(gs.rbOwner, rb)
	}

	if simObj, ok := gs.playerSimObjects[playerID]; ok {
		gs.sec.RemoveObject(simObj.ID())
		delete(gs.playerSimObjects, playerID)
	}
}

// AddPlayerSimObject registers the deterministic-core object spawned
// for a player's rigidbody, so movement/removal can keep both in step.
func (gs *GameMatchState) AddPlayerSimObject(playerID string, obj *section.Object) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.playerSimObjects == nil {
		gs.playerSimObjects = make(map[string]*section.Object)
	}
	gs.playerSimObjects[playerID] = obj
}

// BroadcastObjectUpdate builds a small object delta and broadcasts it to connected clients.
// If dispatcher is nil the function returns after preparing the payload (no-op for broadcast).
func (gs *GameMatchState) BroadcastObjectUpdate(oid int, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Read object state under lock
	gs.mu.Lock()
	obj, ok := gs.objects[oid]
	gs.mu.Unlock()
	if !ok || obj == nil {
		return
	}

	// Build payload with minimal fields clients need to render
	payload := map[string]interface{}{
		"id":    obj.ID,
		"gid":   obj.GID,
		"props": obj.Props,
	}

	msg := GameMessage{
		Type: "object.update",
		Data: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("BroadcastObjectUpdate: failed to marshal object update: %v", err)
		return
	}

	if dispatcher != nil {
		dispatcher.BroadcastMessage(OpCodeObjectUpdate, data, nil, nil, true)
	}
}
