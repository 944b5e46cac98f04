package imageview

// Quality, DebugSnapshot and the observer function types form the engine's
// external interface surface (spec external interfaces, §6). Following the
// teacher's callback-registration idiom in input.go/scene.go, observers are
// plain function values held on the Engine rather than an interface, since
// each has exactly one method and the host typically only wants a subset.

// DebugSnapshot is delivered to OnDebugUpdate once per render, only when
// EngineConfig.Debug is set.
type DebugSnapshot struct {
	Scale               float64
	TranslateX          float64
	TranslateY          float64
	LODLevel            int
	CanvasWidth         int
	CanvasHeight        int
	ImageWidth          int
	ImageHeight         int
	FitToScreenScale    float64
	EffectiveMinScale   float64
	EffectiveMaxScale   float64
	TextureBytes        int64
	EstimatedTotalBytes int64
	MemoryBudgetBytes   int64
	PressureRatio       float64
	ActiveLODCount      int
	TileMode            bool
	ActiveTileCount     int
	CachedTileCount     int
	LoadingTileCount    int
}

// Observers is the set of callbacks the host may register. All fields are
// optional; a nil callback is simply not invoked.
type Observers struct {
	// OnZoomChange fires on every transform change and every animation frame.
	OnZoomChange func(absoluteScale, relativeToFitScale float64)

	// OnLoadingStateChange fires when an LOD texture's creation starts and
	// when its result has been handled. Tile and background loads are not
	// reported through it.
	OnLoadingStateChange func(isLoading bool, message string, quality Quality)

	// OnDebugUpdate fires per render, only when Debug is enabled.
	OnDebugUpdate func(snapshot DebugSnapshot)

	// OnImageCopied fires after CopyOriginalToClipboard succeeds.
	OnImageCopied func()
}

func (o *Observers) zoomChange(absolute, relative float64) {
	if o != nil && o.OnZoomChange != nil {
		o.OnZoomChange(absolute, relative)
	}
}

func (o *Observers) loadingStateChange(isLoading bool, message string, quality Quality) {
	if o != nil && o.OnLoadingStateChange != nil {
		o.OnLoadingStateChange(isLoading, message, quality)
	}
}

func (o *Observers) debugUpdate(snapshot DebugSnapshot) {
	if o != nil && o.OnDebugUpdate != nil {
		o.OnDebugUpdate(snapshot)
	}
}

func (o *Observers) imageCopied() {
	if o != nil && o.OnImageCopied != nil {
		o.OnImageCopied()
	}
}
