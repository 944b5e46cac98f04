package imageview

// DoubleClickMode selects what a double-tap/double-click does.
type DoubleClickMode uint8

const (
	DoubleClickToggle DoubleClickMode = iota // toggle between fit and 1:1
	DoubleClickZoom                          // step-zoom by DoubleClickStep
)

// LODLevel is a declared configuration entry in the LOD table: Scale is the
// ratio of LOD texture pixels to source pixels, MaxViewportScale is the
// highest viewport-relative zoom at which this LOD is adequate.
type LODLevel struct {
	Scale            float64
	MaxViewportScale float64
}

// DefaultLODLevels is the default ascending LOD table (0.125x .. 16x).
// Values are tuning parameters, not load-bearing constants: the only hard
// requirement is strict ascending order by Scale, validated in NewEngine.
var DefaultLODLevels = []LODLevel{
	{Scale: 0.125, MaxViewportScale: 0.1875},
	{Scale: 0.25, MaxViewportScale: 0.375},
	{Scale: 0.5, MaxViewportScale: 0.75},
	{Scale: 1, MaxViewportScale: 1.5},
	{Scale: 2, MaxViewportScale: 3},
	{Scale: 4, MaxViewportScale: 6},
	{Scale: 8, MaxViewportScale: 12},
	{Scale: 16, MaxViewportScale: 1 << 30},
}

// EngineConfig holds every external-interface setting of the engine, all
// optional with documented defaults applied by NewEngine.
type EngineConfig struct {
	// MinScale and MaxScale are relative to fit-to-viewport.
	MinScale float64
	MaxScale float64

	// InitialScale is relative to fit-to-viewport.
	InitialScale float64

	// CenterOnInit and LimitToBounds default to true. They are *bool, not
	// bool, so a zero-valued EngineConfig{} can be told apart from a caller
	// who explicitly opted out: Go's bool zero value is false, which would
	// otherwise be indistinguishable from "turn this off". Leave nil to take
	// the default, or set via boolPtr to override.
	CenterOnInit  *bool
	LimitToBounds *bool

	// Smooth, when false, makes animations resolve on the next frame
	// instead of interpolating. Defaults to true, same *bool reasoning as
	// CenterOnInit/LimitToBounds above.
	Smooth *bool

	WheelStep        float64
	WheelDisabled     bool

	DoubleClickDisabled     bool
	DoubleClickMode         DoubleClickMode
	DoubleClickStep         float64
	DoubleClickAnimationTime int // milliseconds

	PanningDisabled bool
	PinchDisabled   bool
	PinchStep       float64

	Debug bool

	// Mobile selects the constrained-device profile (spec.md §4.D): a smaller
	// background texture side and background-skip threshold, a tile LOD
	// capped at level 6, and a one-tile prefetch budget. It does not change
	// the tile size, tile-texture size or memory defaults below.
	Mobile bool

	// LODLevels is the static, strictly-ascending-by-Scale LOD table.
	// Defaults to DefaultLODLevels.
	LODLevels []LODLevel

	// TileSize is the grid step in source pixels (default 256 mobile profile).
	TileSize int
	// MaxTileTextureSize caps a tile's GPU texture side in pixels (default 512).
	MaxTileTextureSize int
	// MaxTilesInMemory is the tile cache count ceiling (default 8).
	MaxTilesInMemory int

	// MemoryBudgetBytes is the texture memory ceiling (default 128 MiB).
	MemoryBudgetBytes int64
	// MemoryPressureRatio is a fraction of the budget (default 0.6). It is
	// stored here but no code reads it: pressure triggers no eviction, and
	// tile loads are refused above a fixed 0.9 ratio instead.
	MemoryPressureRatio float64

	// PixelArtThreshold is the source-side length below which nearest-
	// neighbor filtering is used at LOD scale >= 1 (default 512).
	PixelArtThreshold int

	// Concurrency bounds the tile loader pool (idle default 3).
	Concurrency int
}

const (
	mib = 1 << 20
)

// boolPtr returns a pointer to b, for setting EngineConfig's tri-state
// CenterOnInit/LimitToBounds/Smooth fields.
func boolPtr(b bool) *bool { return &b }

// DefaultEngineConfig returns an EngineConfig with the documented defaults
// from the external-interfaces contract.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinScale:                 0.1,
		MaxScale:                 10.0,
		InitialScale:             1.0,
		CenterOnInit:             boolPtr(true),
		LimitToBounds:            boolPtr(true),
		Smooth:                   boolPtr(true),
		WheelStep:                0.1,
		DoubleClickMode:          DoubleClickToggle,
		DoubleClickStep:          1.0,
		DoubleClickAnimationTime: 300,
		PinchStep:                1.0,
		LODLevels:                DefaultLODLevels,
		TileSize:                 256,
		MaxTileTextureSize:       512,
		MaxTilesInMemory:         8,
		MemoryBudgetBytes:        128 * mib,
		MemoryPressureRatio:      0.6,
		PixelArtThreshold:        512,
		Concurrency:              3,
	}
}

// applyDefaults fills any zero-valued field of cfg with the documented
// default, following the teacher's RunConfig pattern of tolerating a
// caller-supplied partial config.
func applyDefaults(cfg EngineConfig) EngineConfig {
	d := DefaultEngineConfig()
	if cfg.MinScale == 0 {
		cfg.MinScale = d.MinScale
	}
	if cfg.MaxScale == 0 {
		cfg.MaxScale = d.MaxScale
	}
	if cfg.InitialScale == 0 {
		cfg.InitialScale = d.InitialScale
	}
	if cfg.WheelStep == 0 {
		cfg.WheelStep = d.WheelStep
	}
	if cfg.DoubleClickStep == 0 {
		cfg.DoubleClickStep = d.DoubleClickStep
	}
	if cfg.DoubleClickAnimationTime == 0 {
		cfg.DoubleClickAnimationTime = d.DoubleClickAnimationTime
	}
	if cfg.PinchStep == 0 {
		cfg.PinchStep = d.PinchStep
	}
	if len(cfg.LODLevels) == 0 {
		cfg.LODLevels = d.LODLevels
	}
	if cfg.TileSize == 0 {
		cfg.TileSize = d.TileSize
	}
	if cfg.MaxTileTextureSize == 0 {
		cfg.MaxTileTextureSize = d.MaxTileTextureSize
	}
	if cfg.MaxTilesInMemory == 0 {
		cfg.MaxTilesInMemory = d.MaxTilesInMemory
	}
	if cfg.MemoryBudgetBytes == 0 {
		cfg.MemoryBudgetBytes = d.MemoryBudgetBytes
	}
	if cfg.MemoryPressureRatio == 0 {
		cfg.MemoryPressureRatio = d.MemoryPressureRatio
	}
	if cfg.PixelArtThreshold == 0 {
		cfg.PixelArtThreshold = d.PixelArtThreshold
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = d.Concurrency
	}
	if cfg.CenterOnInit == nil {
		cfg.CenterOnInit = d.CenterOnInit
	}
	if cfg.LimitToBounds == nil {
		cfg.LimitToBounds = d.LimitToBounds
	}
	if cfg.Smooth == nil {
		cfg.Smooth = d.Smooth
	}
	return cfg
}

// centerOnInit, limitToBounds and smooth resolve the tri-state *bool fields
// to their effective value; nil (unset) reads as the documented true
// default, matching applyDefaults.
func (c EngineConfig) centerOnInit() bool  { return c.CenterOnInit == nil || *c.CenterOnInit }
func (c EngineConfig) limitToBounds() bool { return c.LimitToBounds == nil || *c.LimitToBounds }
func (c EngineConfig) smooth() bool        { return c.Smooth == nil || *c.Smooth }

// validateLODLevels enforces the strict-ascending-by-Scale invariant.
// A misconfigured table passed by the host is a programming error, not a
// runtime condition, so this panics rather than returning an error.
func validateLODLevels(levels []LODLevel) {
	for i := 1; i < len(levels); i++ {
		if levels[i].Scale <= levels[i-1].Scale {
			panic("imageview: LODLevels must be strictly ascending by Scale")
		}
	}
}
