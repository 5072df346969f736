//go:build linux && cgo

// Package pipewire implements the capture source contract on top of
// libpipewire. The library is loaded at runtime with dlopen so builds keep
// working on systems without PipeWire installed; the SPA helpers are
// header-only and link statically.
package pipewire

/*
#cgo pkg-config: libpipewire-0.3
#cgo LDFLAGS: -ldl
#include <pipewire/pipewire.h>
#include <spa/param/video/format-utils.h>
#include <spa/param/buffers.h>
#include <spa/param/props.h>
#include <spa/pod/builder.h>
#include <stdlib.h>
#include <string.h>
#include <dlfcn.h>

// Function pointers for dynamic loading
static void (*d_pw_init)(int *argc, char **argv[]);
static struct pw_main_loop * (*d_pw_main_loop_new)(const struct spa_dict *props);
static struct pw_loop * (*d_pw_main_loop_get_loop)(struct pw_main_loop *loop);
static void (*d_pw_main_loop_quit)(struct pw_main_loop *loop);
static void (*d_pw_main_loop_run)(struct pw_main_loop *loop);
static void (*d_pw_main_loop_destroy)(struct pw_main_loop *loop);
static struct pw_context * (*d_pw_context_new)(struct pw_loop *main_loop, struct pw_properties *props, size_t user_data_size);
static void (*d_pw_context_destroy)(struct pw_context *context);
static struct pw_core * (*d_pw_context_connect_fd)(struct pw_context *context, int fd, struct pw_properties *properties, size_t user_data_size);
static int (*d_pw_core_disconnect)(struct pw_core *core);
static struct pw_properties * (*d_pw_properties_new)(const char *key, ...);
static struct pw_stream * (*d_pw_stream_new)(struct pw_core *core, const char *name, struct pw_properties *props);
static void (*d_pw_stream_add_listener)(struct pw_stream *stream, struct spa_hook *listener, const struct pw_stream_events *events, void *data);
static int (*d_pw_stream_connect)(struct pw_stream *stream, enum pw_direction direction, uint32_t target_id, enum pw_stream_flags flags, const struct spa_pod **params, uint32_t n_params);
static int (*d_pw_stream_update_params)(struct pw_stream *stream, const struct spa_pod **params, uint32_t n_params);
static struct pw_buffer * (*d_pw_stream_dequeue_buffer)(struct pw_stream *stream);
static int (*d_pw_stream_queue_buffer)(struct pw_stream *stream, struct pw_buffer *buffer);
static void (*d_pw_stream_destroy)(struct pw_stream *stream);

static void* pw_lib_handle = NULL;

static int load_pipewire() {
    if (pw_lib_handle != NULL) return 1;

    const char* lib_names[] = {
        "libpipewire-0.3.so.0",
        "libpipewire-0.3.so",
        NULL
    };

    for (int i = 0; lib_names[i] != NULL; i++) {
        pw_lib_handle = dlopen(lib_names[i], RTLD_NOW);
        if (pw_lib_handle) break;
    }

    if (!pw_lib_handle) return 0;

    d_pw_init = dlsym(pw_lib_handle, "pw_init");
    d_pw_main_loop_new = dlsym(pw_lib_handle, "pw_main_loop_new");
    d_pw_main_loop_get_loop = dlsym(pw_lib_handle, "pw_main_loop_get_loop");
    d_pw_main_loop_quit = dlsym(pw_lib_handle, "pw_main_loop_quit");
    d_pw_main_loop_run = dlsym(pw_lib_handle, "pw_main_loop_run");
    d_pw_main_loop_destroy = dlsym(pw_lib_handle, "pw_main_loop_destroy");
    d_pw_context_new = dlsym(pw_lib_handle, "pw_context_new");
    d_pw_context_destroy = dlsym(pw_lib_handle, "pw_context_destroy");
    d_pw_context_connect_fd = dlsym(pw_lib_handle, "pw_context_connect_fd");
    d_pw_core_disconnect = dlsym(pw_lib_handle, "pw_core_disconnect");
    d_pw_properties_new = dlsym(pw_lib_handle, "pw_properties_new");
    d_pw_stream_new = dlsym(pw_lib_handle, "pw_stream_new");
    d_pw_stream_add_listener = dlsym(pw_lib_handle, "pw_stream_add_listener");
    d_pw_stream_connect = dlsym(pw_lib_handle, "pw_stream_connect");
    d_pw_stream_update_params = dlsym(pw_lib_handle, "pw_stream_update_params");
    d_pw_stream_dequeue_buffer = dlsym(pw_lib_handle, "pw_stream_dequeue_buffer");
    d_pw_stream_queue_buffer = dlsym(pw_lib_handle, "pw_stream_queue_buffer");
    d_pw_stream_destroy = dlsym(pw_lib_handle, "pw_stream_destroy");

    if (!d_pw_init || !d_pw_main_loop_new || !d_pw_stream_new || !d_pw_stream_update_params) {
        dlclose(pw_lib_handle);
        pw_lib_handle = NULL;
        return 0;
    }

    return 1;
}

extern void on_state_changed_go(int id, int old, int state, char *error);
extern void on_param_changed_go(int id,
    uint32_t media_type, uint32_t media_subtype, uint32_t format,
    uint32_t width, uint32_t height,
    uint32_t fr_num, uint32_t fr_den,
    uint32_t max_num, uint32_t max_den);
extern void on_buffer_go(int id, void *data, uint32_t maxsize,
    uint32_t offset, uint32_t size, int32_t stride,
    int crop_valid, int32_t crop_x, int32_t crop_y,
    uint32_t crop_w, uint32_t crop_h);
extern void on_add_buffer_go(int id);
extern void on_remove_buffer_go(int id);
extern void on_drained_go(int id);

struct go_stream_data {
    int id;
    struct pw_stream *stream;
    struct spa_hook stream_listener;
};

static void on_state_changed_c(void *userdata, enum pw_stream_state old, enum pw_stream_state state, const char *error) {
    struct go_stream_data *data = userdata;
    on_state_changed_go(data->id, (int)old, (int)state, (char*)error);
}

static void on_param_changed_c(void *userdata, uint32_t id, const struct spa_pod *param) {
    struct go_stream_data *data = userdata;
    if (param == NULL || id != SPA_PARAM_Format) return;

    uint32_t media_type = 0, media_subtype = 0;
    if (spa_format_parse(param, &media_type, &media_subtype) < 0) return;

    struct spa_video_info_raw info;
    memset(&info, 0, sizeof(info));
    if (media_type == SPA_MEDIA_TYPE_video && media_subtype == SPA_MEDIA_SUBTYPE_raw)
        spa_format_video_raw_parse(param, &info);

    on_param_changed_go(data->id, media_type, media_subtype, (uint32_t)info.format,
        info.size.width, info.size.height,
        info.framerate.num, info.framerate.denom,
        info.max_framerate.num, info.max_framerate.denom);
}

static void on_process_c(void *userdata) {
    struct go_stream_data *data = userdata;
    if (!data->stream) return;

    struct pw_buffer *b;
    while ((b = d_pw_stream_dequeue_buffer(data->stream)) != NULL) {
        struct spa_buffer *buf = b->buffer;
        if (buf != NULL && buf->n_datas >= 1 && buf->datas[0].data != NULL) {
            struct spa_chunk *chunk = buf->datas[0].chunk;
            uint32_t offset = chunk ? chunk->offset : 0;
            uint32_t size = chunk ? chunk->size : 0;
            int32_t stride = chunk ? chunk->stride : 0;

            int crop_valid = 0;
            int32_t crop_x = 0, crop_y = 0;
            uint32_t crop_w = 0, crop_h = 0;
            struct spa_meta_region *crop = spa_buffer_find_meta_data(buf, SPA_META_VideoCrop, sizeof(*crop));
            if (crop != NULL && spa_meta_region_is_valid(crop)) {
                crop_valid = 1;
                crop_x = crop->region.position.x;
                crop_y = crop->region.position.y;
                crop_w = crop->region.size.width;
                crop_h = crop->region.size.height;
            }

            on_buffer_go(data->id, buf->datas[0].data, buf->datas[0].maxsize,
                offset, size, stride, crop_valid, crop_x, crop_y, crop_w, crop_h);
        }
        d_pw_stream_queue_buffer(data->stream, b);
    }
}

static void on_add_buffer_c(void *userdata, struct pw_buffer *buffer) {
    struct go_stream_data *data = userdata;
    (void)buffer;
    on_add_buffer_go(data->id);
}

static void on_remove_buffer_c(void *userdata, struct pw_buffer *buffer) {
    struct go_stream_data *data = userdata;
    (void)buffer;
    on_remove_buffer_go(data->id);
}

static void on_drained_c(void *userdata) {
    struct go_stream_data *data = userdata;
    on_drained_go(data->id);
}

static const struct pw_stream_events stream_events = {
    PW_VERSION_STREAM_EVENTS,
    .state_changed = on_state_changed_c,
    .param_changed = on_param_changed_c,
    .add_buffer = on_add_buffer_c,
    .remove_buffer = on_remove_buffer_c,
    .process = on_process_c,
    .drained = on_drained_c,
};

static struct pw_stream * create_stream(struct pw_core *core, const char *name, struct go_stream_data *data) {
    struct pw_properties *props = d_pw_properties_new(
                PW_KEY_MEDIA_TYPE, "Video",
                PW_KEY_MEDIA_CATEGORY, "Capture",
                PW_KEY_MEDIA_ROLE, "Screen",
                NULL);

    struct pw_stream *stream = d_pw_stream_new(core, name, props);
    if (stream != NULL) {
        data->stream = stream;
        d_pw_stream_add_listener(stream, &data->stream_listener, &stream_events, data);
    }
    return stream;
}

static int connect_stream(struct pw_stream *stream, uint32_t target_id,
                const uint32_t *formats, int n_formats,
                uint32_t def_w, uint32_t def_h,
                uint32_t min_w, uint32_t min_h,
                uint32_t max_w, uint32_t max_h,
                uint32_t fps_num, uint32_t fps_den,
                uint32_t fps_min_num, uint32_t fps_min_den,
                uint32_t fps_max_num, uint32_t fps_max_den) {
    uint8_t buffer[2048];
    struct spa_pod_builder b = SPA_POD_BUILDER_INIT(buffer, sizeof(buffer));
    struct spa_pod_frame f_obj, f_choice;

    struct spa_rectangle size_def = SPA_RECTANGLE(def_w, def_h);
    struct spa_rectangle size_min = SPA_RECTANGLE(min_w, min_h);
    struct spa_rectangle size_max = SPA_RECTANGLE(max_w, max_h);
    struct spa_fraction fr_def = SPA_FRACTION(fps_num, fps_den);
    struct spa_fraction fr_min = SPA_FRACTION(fps_min_num, fps_min_den);
    struct spa_fraction fr_max = SPA_FRACTION(fps_max_num, fps_max_den);

    if (n_formats < 1) return -1;

    spa_pod_builder_push_object(&b, &f_obj, SPA_TYPE_OBJECT_Format, SPA_PARAM_EnumFormat);
    spa_pod_builder_add(&b,
        SPA_FORMAT_mediaType, SPA_POD_Id(SPA_MEDIA_TYPE_video),
        SPA_FORMAT_mediaSubtype, SPA_POD_Id(SPA_MEDIA_SUBTYPE_raw),
        0);
    spa_pod_builder_prop(&b, SPA_FORMAT_VIDEO_format, 0);
    spa_pod_builder_push_choice(&b, &f_choice, SPA_CHOICE_Enum, 0);
    spa_pod_builder_id(&b, formats[0]);
    for (int i = 0; i < n_formats; i++)
        spa_pod_builder_id(&b, formats[i]);
    spa_pod_builder_pop(&b, &f_choice);
    spa_pod_builder_add(&b,
        SPA_FORMAT_VIDEO_size, SPA_POD_CHOICE_RANGE_Rectangle(&size_def, &size_min, &size_max),
        SPA_FORMAT_VIDEO_framerate, SPA_POD_CHOICE_RANGE_Fraction(&fr_def, &fr_min, &fr_max),
        0);

    const struct spa_pod *params[1];
    params[0] = spa_pod_builder_pop(&b, &f_obj);

    return d_pw_stream_connect(stream,
        PW_DIRECTION_INPUT,
        target_id,
        PW_STREAM_FLAG_AUTOCONNECT |
        PW_STREAM_FLAG_MAP_BUFFERS |
        PW_STREAM_FLAG_DONT_RECONNECT,
        params, 1);
}

static int update_stream_params(struct pw_stream *stream,
                int b_min, int b_def, int b_max, int blocks,
                int size, int stride, int want_crop) {
    uint8_t buffer[1024];
    struct spa_pod_builder b = SPA_POD_BUILDER_INIT(buffer, sizeof(buffer));
    const struct spa_pod *params[2];
    int n_params = 0;

    params[n_params++] = spa_pod_builder_add_object(&b,
        SPA_TYPE_OBJECT_ParamBuffers, SPA_PARAM_Buffers,
        SPA_PARAM_BUFFERS_buffers, SPA_POD_CHOICE_RANGE_Int(b_def, b_min, b_max),
        SPA_PARAM_BUFFERS_blocks, SPA_POD_Int(blocks),
        SPA_PARAM_BUFFERS_size, SPA_POD_Int(size),
        SPA_PARAM_BUFFERS_stride, SPA_POD_Int(stride),
        SPA_PARAM_BUFFERS_dataType, SPA_POD_CHOICE_FLAGS_Int((1 << SPA_DATA_MemPtr)));

    if (want_crop) {
        params[n_params++] = spa_pod_builder_add_object(&b,
            SPA_TYPE_OBJECT_ParamMeta, SPA_PARAM_Meta,
            SPA_PARAM_META_type, SPA_POD_Id(SPA_META_VideoCrop),
            SPA_PARAM_META_size, SPA_POD_Int(sizeof(struct spa_meta_region)));
    }

    return d_pw_stream_update_params(stream, params, n_params);
}

// Accessors for Go
static inline void wrap_pw_init() { d_pw_init(NULL, NULL); }
static inline struct pw_main_loop * wrap_pw_main_loop_new() { return d_pw_main_loop_new(NULL); }
static inline struct pw_context * wrap_pw_context_new(struct pw_main_loop *loop) { return d_pw_context_new(d_pw_main_loop_get_loop(loop), NULL, 0); }
static inline struct pw_core * wrap_pw_context_connect_fd(struct pw_context *context, int fd) { return d_pw_context_connect_fd(context, fd, NULL, 0); }
static inline void wrap_pw_main_loop_run(struct pw_main_loop *loop) { d_pw_main_loop_run(loop); }
static inline void wrap_pw_main_loop_quit(struct pw_main_loop *loop) { d_pw_main_loop_quit(loop); }
static inline void wrap_pw_stream_destroy(struct pw_stream *stream) { d_pw_stream_destroy(stream); }
static inline void wrap_pw_core_disconnect(struct pw_core *core) { d_pw_core_disconnect(core); }
static inline void wrap_pw_context_destroy(struct pw_context *context) { d_pw_context_destroy(context); }
static inline void wrap_pw_main_loop_destroy(struct pw_main_loop *loop) { d_pw_main_loop_destroy(loop); }
*/
import "C"
import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"go2tv.app/pwcapture/source"
)

var ErrLibraryNotLoaded = errors.New("libpipewire-0.3.so.0 could not be loaded")

var (
	sourcesMu sync.Mutex
	sources   = make(map[int]*Source)
	nextID    = 1
	libLoaded bool
	libMu     sync.Mutex
)

// IsAvailable checks whether the PipeWire library can be loaded.
func IsAvailable() bool {
	libMu.Lock()
	defer libMu.Unlock()
	if libLoaded {
		return true
	}
	if C.load_pipewire() == 1 {
		libLoaded = true
		C.wrap_pw_init()
		return true
	}
	return false
}

// spaFormat maps the abstract source formats onto SPA video format ids.
var spaFormat = map[source.PixelFormat]C.uint32_t{
	source.FormatBGRA: C.SPA_VIDEO_FORMAT_BGRA,
	source.FormatBGRx: C.SPA_VIDEO_FORMAT_BGRx,
	source.FormatRGBA: C.SPA_VIDEO_FORMAT_RGBA,
	source.FormatRGBx: C.SPA_VIDEO_FORMAT_RGBx,
	source.FormatRGB:  C.SPA_VIDEO_FORMAT_RGB,
	source.FormatUYVY: C.SPA_VIDEO_FORMAT_UYVY,
	source.FormatYUY2: C.SPA_VIDEO_FORMAT_YUY2,
}

func fromSPAFormat(f uint32) source.PixelFormat {
	for k, v := range spaFormat {
		if uint32(v) == f {
			return k
		}
	}
	return source.FormatUnknown
}

func fromSPAState(s int) source.StreamState {
	switch s {
	case int(C.PW_STREAM_STATE_ERROR):
		return source.StreamError
	case int(C.PW_STREAM_STATE_UNCONNECTED):
		return source.StreamUnconnected
	case int(C.PW_STREAM_STATE_CONNECTING):
		return source.StreamConnecting
	case int(C.PW_STREAM_STATE_PAUSED):
		return source.StreamPaused
	case int(C.PW_STREAM_STATE_STREAMING):
		return source.StreamStreaming
	default:
		return source.StreamError
	}
}

// Source drives one PipeWire capture stream and implements source.Source.
// Events are delivered from the loop goroutine; Stop joins that goroutine
// before returning, so after Stop no handler call is in flight.
type Source struct {
	loop    *C.struct_pw_main_loop
	context *C.struct_pw_context
	core    *C.struct_pw_core
	cData   *C.struct_go_stream_data

	id      int
	node    uint32
	handler source.Handler

	wg        sync.WaitGroup
	started   bool
	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
}

// NewSource connects to the PipeWire daemon over fd and prepares a capture
// of the given node. The fd is duplicated; the duplicate's ownership passes
// to PipeWire.
func NewSource(fd int, nodeID uint32) (*Source, error) {
	if !IsAvailable() {
		return nil, ErrLibraryNotLoaded
	}

	s := &Source{node: nodeID}

	sourcesMu.Lock()
	s.id = nextID
	nextID++
	sourcesMu.Unlock()

	// dup fd because pw_context_connect_fd takes ownership
	dupFd, err := syscall.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("dup fd: %v", err)
	}
	defer func() {
		if dupFd >= 0 {
			_ = syscall.Close(dupFd)
		}
	}()

	cleanupOnError := func(err error) (*Source, error) {
		_ = s.Close()
		return nil, err
	}

	s.loop = C.wrap_pw_main_loop_new()
	if s.loop == nil {
		return cleanupOnError(fmt.Errorf("failed to create main loop"))
	}

	s.context = C.wrap_pw_context_new(s.loop)
	if s.context == nil {
		return cleanupOnError(fmt.Errorf("failed to create context"))
	}

	s.core = C.wrap_pw_context_connect_fd(s.context, C.int(dupFd))
	if s.core == nil {
		return cleanupOnError(fmt.Errorf("failed to connect fd"))
	}
	dupFd = -1 // ownership was transferred to PipeWire

	s.cData = (*C.struct_go_stream_data)(C.malloc(C.sizeof_struct_go_stream_data))
	s.cData.id = C.int(s.id)
	s.cData.stream = nil

	sourcesMu.Lock()
	sources[s.id] = s
	sourcesMu.Unlock()

	return s, nil
}

// SetHandler registers the event sink. Must be called before Start.
func (s *Source) SetHandler(h source.Handler) {
	s.handler = h
}

// Connect creates the stream and sends the format offer. Events start
// flowing once Start runs the loop.
func (s *Source) Connect(params source.ConnectParams) error {
	if s.handler == nil {
		return errors.New("pipewire: Connect before SetHandler")
	}
	if len(params.Formats) == 0 {
		return errors.New("pipewire: no formats requested")
	}

	name := C.CString("pwcapture")
	defer C.free(unsafe.Pointer(name))

	stream := C.create_stream(s.core, name, s.cData)
	if stream == nil {
		return fmt.Errorf("failed to create stream")
	}
	s.cData.stream = stream

	formats := make([]C.uint32_t, 0, len(params.Formats))
	for _, f := range params.Formats {
		id, ok := spaFormat[f]
		if !ok {
			return fmt.Errorf("pipewire: format %s not expressible", f)
		}
		formats = append(formats, id)
	}

	res := C.connect_stream(stream, C.uint32_t(s.node),
		&formats[0], C.int(len(formats)),
		C.uint32_t(params.SizeDefault.Width), C.uint32_t(params.SizeDefault.Height),
		C.uint32_t(params.SizeMin.Width), C.uint32_t(params.SizeMin.Height),
		C.uint32_t(params.SizeMax.Width), C.uint32_t(params.SizeMax.Height),
		C.uint32_t(params.FramerateDefault.Num), C.uint32_t(params.FramerateDefault.Den),
		C.uint32_t(params.FramerateMin.Num), C.uint32_t(params.FramerateMin.Den),
		C.uint32_t(params.FramerateMax.Num), C.uint32_t(params.FramerateMax.Den))
	if res < 0 {
		return fmt.Errorf("failed to connect stream: %d", int(res))
	}
	return nil
}

// UpdateParams answers a format event with the desired buffer layout. It is
// called from the loop thread, inside the param_changed dispatch.
func (s *Source) UpdateParams(p source.BufferParams) error {
	if s.cData == nil || s.cData.stream == nil {
		return errors.New("pipewire: stream not connected")
	}
	wantCrop := 0
	if p.WantCropMeta {
		wantCrop = 1
	}
	res := C.update_stream_params(s.cData.stream,
		C.int(p.Buffers.Min), C.int(p.Buffers.Default), C.int(p.Buffers.Max),
		C.int(p.Blocks), C.int(p.Size), C.int(p.Stride), C.int(wantCrop))
	if res < 0 {
		return fmt.Errorf("failed to update stream params: %d", int(res))
	}
	return nil
}

// Start runs the PipeWire loop on its own goroutine, the producer thread of
// the pipeline.
func (s *Source) Start() error {
	s.startOnce.Do(func() {
		s.started = true
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			C.wrap_pw_main_loop_run(s.loop)
		}()
	})
	return nil
}

// Stop quits the loop and waits for the producer goroutine to exit. After
// Stop returns no further events are delivered.
func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		if s.loop != nil {
			C.wrap_pw_main_loop_quit(s.loop)
		}
		if s.started {
			s.wg.Wait()
		}
	})
}

// Close releases everything in a fixed order: stop the loop, destroy the
// stream, disconnect the core, destroy the context, destroy the loop. Every
// early-exit path of NewSource funnels through here as well.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.Stop()

		if s.cData != nil {
			if s.cData.stream != nil {
				C.wrap_pw_stream_destroy(s.cData.stream)
			}
			C.free(unsafe.Pointer(s.cData))
			s.cData = nil
		}
		if s.core != nil {
			C.wrap_pw_core_disconnect(s.core)
			s.core = nil
		}
		if s.context != nil {
			C.wrap_pw_context_destroy(s.context)
			s.context = nil
		}
		if s.loop != nil {
			C.wrap_pw_main_loop_destroy(s.loop)
			s.loop = nil
		}

		sourcesMu.Lock()
		delete(sources, s.id)
		sourcesMu.Unlock()
	})
	return s.closeErr
}

func lookup(id C.int) *Source {
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	return sources[int(id)]
}

//export on_state_changed_go
func on_state_changed_go(id C.int, old C.int, state C.int, cerr *C.char) {
	s := lookup(id)
	if s == nil || s.handler == nil {
		return
	}
	var err error
	if cerr != nil {
		err = errors.New(C.GoString(cerr))
	}
	s.handler.HandleEvent(source.Event{
		Kind:     source.KindStateChanged,
		OldState: fromSPAState(int(old)),
		NewState: fromSPAState(int(state)),
		Err:      err,
	})
}

//export on_param_changed_go
func on_param_changed_go(id C.int,
	mediaType, mediaSubtype, format C.uint32_t,
	width, height C.uint32_t,
	frNum, frDen C.uint32_t,
	maxNum, maxDen C.uint32_t) {
	s := lookup(id)
	if s == nil || s.handler == nil {
		return
	}

	ev := &source.FormatEvent{
		Format: fromSPAFormat(uint32(format)),
		Size:   source.Rect{Width: int(width), Height: int(height)},
		Framerate: source.Fraction{
			Num: int(frNum),
			Den: int(frDen),
		},
		MaxFramerate: source.Fraction{
			Num: int(maxNum),
			Den: int(maxDen),
		},
	}
	switch uint32(mediaType) {
	case uint32(C.SPA_MEDIA_TYPE_video):
		ev.MediaType = source.MediaTypeVideo
	case uint32(C.SPA_MEDIA_TYPE_audio):
		ev.MediaType = source.MediaTypeAudio
	default:
		ev.MediaType = source.MediaTypeUnknown
	}
	if uint32(mediaSubtype) == uint32(C.SPA_MEDIA_SUBTYPE_raw) {
		ev.MediaSubtype = source.MediaSubtypeRaw
	} else {
		ev.MediaSubtype = source.MediaSubtypeUnknown
	}

	s.handler.HandleEvent(source.Event{
		Kind:   source.KindParamsChanged,
		Format: ev,
	})
}

//export on_buffer_go
func on_buffer_go(id C.int, data unsafe.Pointer, maxsize C.uint32_t,
	offset, size C.uint32_t, stride C.int32_t,
	cropValid C.int, cropX, cropY C.int32_t, cropW, cropH C.uint32_t) {
	s := lookup(id)
	if s == nil || s.handler == nil {
		return
	}

	raw := &source.RawBuffer{
		Data:        unsafe.Slice((*byte)(data), int(maxsize)),
		ChunkOffset: int(offset),
		ChunkSize:   int(size),
		Stride:      int(stride),
	}
	if cropValid != 0 {
		raw.Crop = &source.Region{
			X:      int(cropX),
			Y:      int(cropY),
			Width:  int(cropW),
			Height: int(cropH),
		}
	}

	// The slice aliases PipeWire-owned memory; the handler copies out of it
	// synchronously before the buffer is requeued.
	s.handler.HandleEvent(source.Event{
		Kind:    source.KindProcess,
		Buffers: []*source.RawBuffer{raw},
	})
}

//export on_add_buffer_go
func on_add_buffer_go(id C.int) {
	s := lookup(id)
	if s == nil || s.handler == nil {
		return
	}
	s.handler.HandleEvent(source.Event{Kind: source.KindBufferAdded})
}

//export on_remove_buffer_go
func on_remove_buffer_go(id C.int) {
	s := lookup(id)
	if s == nil || s.handler == nil {
		return
	}
	s.handler.HandleEvent(source.Event{Kind: source.KindBufferRemoved})
}

//export on_drained_go
func on_drained_go(id C.int) {
	s := lookup(id)
	if s == nil || s.handler == nil {
		return
	}
	s.handler.HandleEvent(source.Event{Kind: source.KindDrained})
}
