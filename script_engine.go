package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rudransh61/Physix-go/pkg/polygon"
	"github.com/rudransh61/Physix-go/pkg/rigidbody"
	"github.com/rudransh61/Physix-go/pkg/vector"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/legacyclonk/openworld-core/internal/aul"
	"github.com/legacyclonk/openworld-core/internal/filemonitor"
	"github.com/legacyclonk/openworld-core/internal/logging"
	"github.com/legacyclonk/openworld-core/internal/util"
)

var (
	scriptExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openworld_script_executions_total",
		Help: "Interact-script executions, labeled by script id.",
	}, []string{"script_id"})
	scriptExecDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "openworld_script_exec_duration_seconds",
		Help:    "Wall-clock time spent running one interact script, including any linked #appendto chain.",
		Buckets: prometheus.DefBuckets,
	})
)

// ScriptEngine owns the whole definition tree's linked scripts: at
// startup it scans baseDir for .lua definitions, links them with
// internal/aul (resolving #include/#appendto), and registers every
// function so Execute can run a definition's full, linked function set
// instead of just the bytes of one file.
type ScriptEngine struct {
	logger  runtime.Logger
	baseDir string
	pool    sync.Pool

	program  *aul.Program
	scripts  map[string]*aul.Script
	registry *aul.Registry

	monitor *filemonitor.Monitor
}

type ScriptEffect struct {
	ObjectID int

	AckMessage string
}

func NewScriptEngine(logger runtime.Logger, baseDir string) *ScriptEngine {
	se := &ScriptEngine{
		logger:  logger,
		baseDir: baseDir,
		pool: sync.Pool{
			New: func() any {
				L := lua.NewState(
					lua.Options{
						SkipOpenLibs: false,
					},
				)
				return L
			},
		},
	}
	se.loadProgram()
	return se
}

// EnableHotReload watches baseDir for .lua changes and relinks the
// whole definition tree on the draining goroutine when one fires. Dev
// convenience only, gated by config.Section.HotReloadScripts — not
// something a live match should pay fsnotify overhead for by default.
func (se *ScriptEngine) EnableHotReload() error {
	if se.monitor != nil {
		return nil
	}
	mon, err := filemonitor.New(func(path string) {
		if !util.WildcardMatch("*.lua", strings.ToLower(filepath.Base(path))) {
			return
		}
		se.logger.Info("script_engine: reloading definitions after change to %s", path)
		se.loadProgram()
	}, logging.New(zap.NewNop()))
	if err != nil {
		return err
	}
	if err := mon.Watch(se.baseDir); err != nil {
		_ = mon.Close()
		return err
	}
	mon.Start()
	se.monitor = mon
	return nil
}

// Close stops the hot-reload watcher, if one was started.
func (se *ScriptEngine) Close() error {
	if se.monitor == nil {
		return nil
	}
	err := se.monitor.Close()
	se.monitor = nil
	return err
}

// loadProgram scans baseDir for *.lua definitions, parses each file's
// leading #include/#appendto directives and top-level function bodies,
// and runs them through aul's linker so appended/included functions are
// live before the first Execute call.
func (se *ScriptEngine) loadProgram() {
	scripts := make(map[string]*aul.Script)
	var order []*aul.Script

	walkErr := util.ForEachFile(se.baseDir, func(path string, info fs.FileInfo) error {
		if !util.WildcardMatch("*.lua", strings.ToLower(info.Name())) {
			return nil
		}
		rel, relErr := filepath.Rel(se.baseDir, path)
		if relErr != nil {
			rel = path
		}
		id := strings.TrimSuffix(filepath.ToSlash(rel), ".lua")

		src, readErr := os.ReadFile(path)
		if readErr != nil {
			se.logger.Warn("script_engine: cannot read %s: %v", path, readErr)
			return nil
		}

		s := &aul.Script{ID: id}
		includes, appends, funcs := parseScriptSource(string(src))
		s.Includes = includes
		s.Appends = appends
		for _, f := range funcs {
			s.AddFunc(f)
		}

		scripts[id] = s
		order = append(order, s)
		return nil
	})
	if walkErr != nil {
		se.logger.Warn("script_engine: scanning %s: %v", se.baseDir, walkErr)
	}

	engine := &aul.Script{ID: ""}
	program := aul.NewProgram(engine, order)
	program.Link()

	registry := aul.NewRegistry()
	for _, s := range order {
		for _, f := range s.Funcs {
			registry.Add(f.Name, f, false)
		}
	}

	if program.WarnCnt > 0 || program.ErrCnt > 0 {
		se.logger.Info("script_engine: linked %d definitions (%d warnings, %d errors)", len(order), program.WarnCnt, program.ErrCnt)
	}

	se.program = program
	se.scripts = scripts
	se.registry = registry
}

var (
	includeDirectiveRe = regexp.MustCompile(`^--\s*#include\s+(\S+)`)
	appendDirectiveRe  = regexp.MustCompile(`^--\s*#appendto\s+(\S+)`)
	funcStartRe        = regexp.MustCompile(`^function\s+(\w+)\s*\(`)
	blockOpenerRe      = regexp.MustCompile(`\b(function|if|do)\b`)
	blockCloserRe      = regexp.MustCompile(`\bend\b`)
)

// parseScriptSource reads a definition's #include/#appendto header
// (Lua comments, one directive per line, before the first real
// statement) and its top-level `function NAME(...) ... end` bodies,
// grounded on original_source/src/C4AulParse.cpp's directive-then-body
// layout. Nested closures are swallowed into the enclosing function's
// body rather than registered as separate script functions.
func parseScriptSource(src string) ([]aul.IncludeEntry, []aul.AppendEntry, []*aul.Func) {
	lines := strings.Split(src, "\n")
	var includes []aul.IncludeEntry
	var appends []aul.AppendEntry
	var funcs []*aul.Func

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if m := includeDirectiveRe.FindStringSubmatch(line); m != nil {
			includes = append(includes, aul.IncludeEntry{ID: m[1]})
			continue
		}
		if m := appendDirectiveRe.FindStringSubmatch(line); m != nil {
			id := m[1]
			if id == "*" {
				id = aul.WildcardID
			}
			appends = append(appends, aul.AppendEntry{ID: id})
			continue
		}
		if strings.HasPrefix(line, "--") {
			continue
		}
		break
	}

	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		m := funcStartRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		name := m[1]
		start := i
		depth := len(blockOpenerRe.FindAllString(trimmed, -1)) - len(blockCloserRe.FindAllString(trimmed, -1))
		for depth > 0 && i+1 < len(lines) {
			i++
			depth += len(blockOpenerRe.FindAllString(lines[i], -1))
			depth -= len(blockCloserRe.FindAllString(lines[i], -1))
		}
		body := strings.Join(lines[start:i+1], "\n")
		funcs = append(funcs, &aul.Func{Name: name, Access: aul.AccessPublic, Body: body})
	}
	return includes, appends, funcs
}

func (se *ScriptEngine) Execute(scriptPath string, params map[string]any, gs *GameMatchState, dispatcher runtime.MatchDispatcher) ([]ScriptEffect, error) {
	start := time.Now()
	scriptID := strings.TrimSuffix(filepath.ToSlash(scriptPath), ".lua")
	scriptExecutions.WithLabelValues(scriptID).Inc()
	defer func() {
		scriptExecDuration.Observe(time.Since(start).Seconds())
	}()

	L := se.pool.Get().(*lua.LState)
	defer func() {
		L.Close()
	}()

	effects := make([]ScriptEffect, 0, 4)

	register := func(name string, fn lua.LGFunction) {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	register("effect_ack", func(L *lua.LState) int {
		msg := L.CheckString(1)
		effects = append(effects, ScriptEffect{AckMessage: msg})
		return 0
	})

	// helper to convert lua table back to Go types
	var luaTableToGo func(*lua.LTable) any
	luaTableToGo = func(tbl *lua.LTable) any {
		// detect if array-like
		maxIdx := 0
		isArray := true
		tbl.ForEach(func(k, v lua.LValue) {
			if keyNum, ok := k.(lua.LNumber); ok {
				if int(keyNum) > maxIdx {
					maxIdx = int(keyNum)
				}
			} else {
				isArray = false
			}
		})
		if isArray && maxIdx > 0 {
			arr := make([]any, 0, maxIdx)
			for i := 1; i <= maxIdx; i++ {
				val := tbl.RawGetInt(i)
				if vtbl, ok := val.(*lua.LTable); ok {
					arr = append(arr, luaTableToGo(vtbl))
				} else {
					switch vv := val.(type) {
					case lua.LString:
						arr = append(arr, string(vv))
					case lua.LNumber:
						arr = append(arr, float64(vv))
					case lua.LBool:
						arr = append(arr, bool(vv))
					default:
						arr = append(arr, val.String())
					}
				}
			}
			return arr
		}

		m := make(map[string]any)
		tbl.ForEach(func(k, v lua.LValue) {
			keyStr := k.String()
			switch val := v.(type) {
			case lua.LString:
				m[keyStr] = string(val)
			case lua.LNumber:
				m[keyStr] = float64(val)
			case lua.LBool:
				m[keyStr] = bool(val)
			case *lua.LTable:
				m[keyStr] = luaTableToGo(val)
			default:
				m[keyStr] = v.String()
			}
		})
		return m
	}

	// Script API: set_object_prop(objectId, key, value)
	register("set_object_prop", func(L *lua.LState) int {
		oid := int(L.CheckNumber(1))
		key := L.CheckString(2)
		val := L.CheckAny(3)

		var gv any
		switch val.Type() {
		case lua.LTNil:
			gv = nil
		case lua.LTBool:
			gv = lua.LVAsBool(val)
		case lua.LTNumber:
			gv = float64(lua.LVAsNumber(val))
		case lua.LTString:
			gv = string(lua.LVAsString(val))
		case lua.LTTable:
			gv = luaTableToGo(val.(*lua.LTable))
		default:
			gv = val.String()
		}

		if gs != nil {
			if obj := gs.objects[oid]; obj != nil {
				obj.Props[key] = gv
			}
		}
		return 0
	})

	// Script API: set_object_gid(objectId, gid)
	register("set_object_gid", func(L *lua.LState) int {
		oid := int(L.CheckNumber(1))
		gid := uint32(L.CheckNumber(2))
		if gs == nil {
			return 0
		}

		// Update GID under lock to avoid races with other state mutations
		gs.mu.Lock()
		obj := gs.objects[oid]
		if obj == nil {
			gs.mu.Unlock()
			return 0
		}
		obj.GID = gid
		gs.mu.Unlock()

		// Remove any existing colliders owned by this object
		gs.RemoveOwnerColliders(oid)

		// If we have map tile collision templates, rebuild colliders automatically
		if gs.currentMap == nil {
			se.logger.Info("Current map is nil, cannot set object gid %d", gid)
			return 0
		}

		template, ok := gs.currentMap.TileCollisions[int(gid)]
		if !ok {
			// No tile collision template for this gid
			se.logger.Info("No tile collision template for this gid %d", gid)
			return 0
		}

		// Read object's world center position from Props (set by MapLoader when map objects were created)
		gs.mu.Lock()
		od := gs.objects[oid]
		var centerX, centerY float64
		if od != nil {
			if xv, ok := od.Props["x"]; ok {
				if xf, ok2 := xv.(float64); ok2 {
					centerX = xf
				}
			}
			if yv, ok := od.Props["y"]; ok {
				if yf, ok2 := yv.(float64); ok2 {
					centerY = yf
				}
			}
		}
		gs.mu.Unlock()

		if centerX == 0 && centerY == 0 {
			se.logger.Info("set_object_gid: object %d missing world position props x/y; skipping auto-rebuild", oid)
			return 0
		}

		// Tile top-left (templates are stored relative to tile top-left)
		tileW := float64(gs.currentMap.TileWidth)
		tileH := float64(gs.currentMap.TileHeight)
		tileX := centerX - tileW/2.0
		tileY := centerY - tileH/2.0

		// Create colliders from template and register them as owned by this object
		for _, ct := range template.Colliders {
			rb, pts := MakeRigidBodyFromTileTemplate(tileX, tileY, ct)
			if rb == nil {
				continue
			}
			// If polygon, ensure physics engine gets the vertex list later when registered by GameMatchState
			if len(pts) > 0 {
				se.logger.Info("set_object_gid: object %d adding polygon collider with %d points", oid, len(pts))
			}
			gs.AddOwnerCollider(oid, rb, pts)
		}

		// Broadcast an immediate object update to clients so they can update texture/frame
		// Pass the dispatcher from Execute so scripts that run via the match can push updates immediately.
		if dispatcher != nil {
			gs.BroadcastObjectUpdate(oid, dispatcher, se.logger)
		} else {
			// Best-effort: still call with nil dispatcher so match loop/world snapshots will include the change
			gs.BroadcastObjectUpdate(oid, nil, se.logger)
		}

		return 0
	})

	// Script API: add_object_collider(objectId, colliderTable)
	register("add_object_collider", func(L *lua.LState) int {
		oid := int(L.CheckNumber(1))
		tbl := L.CheckTable(2)

		if gs == nil {
			return 0
		}
		if obj := gs.objects[oid]; obj == nil {
			return 0
		}

		shape := L.GetField(tbl, "shape")
		var rb rigidbody.RigidBody
		rb.Velocity = vector.Vector{X: 0, Y: 0}
		rb.Mass = 0
		rb.IsMovable = false

		if shapeStr, ok := shape.(lua.LString); ok {
			switch string(shapeStr) {
			case "rectangle":
				rb.Shape = "rectangle"
				rb.Width = float64(L.GetField(tbl, "width").(lua.LNumber))
				rb.Height = float64(L.GetField(tbl, "height").(lua.LNumber))
				rb.Position.X = float64(L.GetField(tbl, "x").(lua.LNumber))
				rb.Position.Y = float64(L.GetField(tbl, "y").(lua.LNumber))
				// add collider via helper (empty polygonPoints)
				gs.AddOwnerCollider(oid, &rb, nil)
			case "circle":
				rb.Shape = "circle"
				rb.Radius = float64(L.GetField(tbl, "radius").(lua.LNumber))
				rb.Position.X = float64(L.GetField(tbl, "x").(lua.LNumber))
				rb.Position.Y = float64(L.GetField(tbl, "y").(lua.LNumber))
				// add collider via helper (empty polygonPoints)
				gs.AddOwnerCollider(oid, &rb, nil)
			case "polygon":
				polyTbl := L.GetField(tbl, "polygon")
				if ptbl, ok := polyTbl.(*lua.LTable); ok {
					points := make([]vector.Vector, 0)
					ptbl.ForEach(func(key, val lua.LValue) {
						if vtbl, ok := val.(*lua.LTable); ok {
							x := float64(L.GetField(vtbl, "x").(lua.LNumber))
							y := float64(L.GetField(vtbl, "y").(lua.LNumber))
							points = append(points, vector.Vector{X: x, Y: y})
						}
					})
					poly := polygon.NewPolygon(points, 0, false)
					poly.RigidBody.IsMovable = false
					poly.RigidBody.Shape = "polygon"

					// add collider via helper (handles ownership and physics registration)
					gs.AddOwnerCollider(oid, &poly.RigidBody, points)
				}
			}
		}
		return 0
	})

	// Script API: remove_object_colliders(objectId)
	register("remove_object_colliders", func(L *lua.LState) int {
		oid := int(L.CheckNumber(1))
		if gs == nil {
			return 0
		}

		// delegate to GameMatchState helper (handles locking and cleanup)
		gs.RemoveOwnerColliders(oid)

		return 0
	})

	// Script API: query_in_rect(x, y, w, h) -> array of object ids, backed
	// by the section's sector-pruned find engine rather than a linear
	// scan of every live object.
	register("query_in_rect", func(L *lua.LState) int {
		x := int(L.CheckNumber(1))
		y := int(L.CheckNumber(2))
		w := int(L.CheckNumber(3))
		h := int(L.CheckNumber(4))

		result := L.NewTable()
		if gs == nil || gs.sec == nil {
			L.Push(result)
			return 1
		}
		for i, id := range gs.sec.ObjectIDsInRect(x, y, w, h) {
			result.RawSetInt(i+1, lua.LNumber(id))
		}
		L.Push(result)
		return 1
	})

	// Script API: find_path(fromX, fromY, toX, toY) -> array of {x=,y=} waypoints
	register("find_path", func(L *lua.LState) int {
		fromX := int(L.CheckNumber(1))
		fromY := int(L.CheckNumber(2))
		toX := int(L.CheckNumber(3))
		toY := int(L.CheckNumber(4))

		if gs == nil || gs.sec == nil {
			L.Push(L.NewTable())
			return 1
		}

		waypoints, _ := gs.sec.FindPath(fromX, fromY, toX, toY)
		result := L.NewTable()
		for i, wp := range waypoints {
			entry := L.NewTable()
			L.SetField(entry, "x", lua.LNumber(wp.X))
			L.SetField(entry, "y", lua.LNumber(wp.Y))
			result.RawSetInt(i+1, entry)
		}
		L.Push(result)
		return 1
	})

	// Helper to convert Go values (including nested maps/slices) to lua.LValue
	var toLValue func(any) lua.LValue
	toLValue = func(v any) lua.LValue {
		switch v := v.(type) {
		case nil:
			return lua.LNil
		case string:
			return lua.LString(v)
		case bool:
			return lua.LBool(v)
		case float32:
			return lua.LNumber(v)
		case float64:
			return lua.LNumber(v)
		case int:
			return lua.LNumber(v)
		case int32:
			return lua.LNumber(v)
		case int64:
			return lua.LNumber(v)
		case uint:
			return lua.LNumber(v)
		case uint32:
			return lua.LNumber(v)
		case uint64:
			return lua.LNumber(v)
		case map[string]interface{}:
			tbl := L.NewTable()
			for kk, vv := range v {
				tbl.RawSetString(kk, toLValue(vv))
			}
			return tbl
		case []interface{}:
			tbl := L.NewTable()
			for i, vv := range v {
				tbl.RawSetInt(i+1, toLValue(vv))
			}
			return tbl
		default:
			// Fallback: try to stringify
			se.logger.Debug("script: converting unknown param type to string: %T", v)
			return lua.LString(fmt.Sprintf("%v", v))
		}
	}

	ctxTbl := L.NewTable()
	for k, v := range params {
		// Use generic converter for all supported types (including maps/slices)
		L.SetField(ctxTbl, k, toLValue(v))
	}
	L.SetGlobal("ctx", ctxTbl)

	def := se.scripts[scriptID]
	if def == nil {
		// Not part of the linked definition tree (e.g. an ad-hoc script
		// path outside baseDir's scan root): fall back to running the
		// file's bytes directly, same as before linking existed.
		abs := filepath.Join(se.baseDir, scriptPath)
		if _, err := os.Stat(abs); err != nil {
			se.logger.Error("Script file not found: %s", scriptPath)
			return effects, err
		}
		if err := L.DoFile(abs); err != nil {
			se.logger.Error("Error executing script %s: %v", scriptPath, err)
			return effects, err
		}
		return effects, nil
	}

	// Load every function this definition owns after linking (its own
	// plus whatever #include/#appendto copied in). A later definition of
	// the same name backs up the prior one under "<name>_base" first, so
	// an appending function can still call the implementation it
	// overrides.
	loaded := make(map[string]bool, len(def.Funcs))
	for _, f := range def.Funcs {
		if loaded[f.Name] {
			if prev := L.GetGlobal(f.Name); prev != lua.LNil {
				L.SetGlobal(f.Name+"_base", prev)
			}
		}
		loaded[f.Name] = true
		if err := L.DoString(f.Body); err != nil {
			se.logger.Error("script_engine: %s: loading function %s: %v", scriptID, f.Name, err)
			return effects, err
		}
	}

	target := "main"
	if event, ok := params["event"]; ok {
		if candidate := "on_" + fmt.Sprintf("%v", event); se.registry.GetFunc(candidate, def, nil) != nil {
			target = candidate
		}
	}
	if fn := L.GetGlobal(target); fn != lua.LNil {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			se.logger.Error("script_engine: %s: calling %s: %v", scriptID, target, err)
			return effects, err
		}
	}

	return effects, nil
}
