package viz

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
)

type ImageContainer struct {
	name string
	data []byte
}

func (i *ImageContainer) Name() string {
	return i.name
}

func (i *ImageContainer) Data() []byte {
	return i.data
}

type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// Server renders registered producers on an interval and serves the latest
// images. Producers are grouped into buckets, one per capture; only buckets
// viewed in the last second are re-rendered.
type Server struct {
	mu              sync.RWMutex
	images          map[string]map[string]*ImageContainer
	producerBuckets map[string]map[string]Producer
	lastViewed      map[string]time.Time
	srv             *http.Server
	updateInterval  time.Duration
	enabled         bool
}

func NewServer(port int, updateInterval time.Duration) *Server {
	if updateInterval <= 0 {
		updateInterval = time.Second
	}
	return &Server{
		images:          make(map[string]map[string]*ImageContainer),
		producerBuckets: make(map[string]map[string]Producer),
		lastViewed:      make(map[string]time.Time),
		srv:             &http.Server{Addr: fmt.Sprintf(":%d", port)},
		updateInterval:  updateInterval,
		enabled:         true,
	}
}

func (s *Server) Enable(enable bool) {
	s.mu.Lock()
	s.enabled = enable
	s.mu.Unlock()
}

func (s *Server) Register(key string, p Producer) {
	s.mu.Lock()
	bucket, ok := s.producerBuckets[key]
	if !ok {
		bucket = make(map[string]Producer)
		s.producerBuckets[key] = bucket
	}
	bucket[p.Name()] = p
	s.mu.Unlock()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// refresh re-renders producers. With force unset, buckets nobody is looking
// at are skipped.
func (s *Server) refresh(force bool) {
	s.mu.RLock()
	if !s.enabled {
		s.mu.RUnlock()
		return
	}
	var work []struct {
		bucket string
		p      Producer
	}
	for bucketName, bucket := range s.producerBuckets {
		if !force && time.Since(s.lastViewed[bucketName]) >= time.Second {
			continue
		}
		for _, p := range bucket {
			work = append(work, struct {
				bucket string
				p      Producer
			}{bucketName, p})
		}
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, w := range work {
		wg.Add(1)
		go func(bucket string, p Producer) {
			defer wg.Done()

			img := p.GetImage()
			if img == nil {
				return
			}

			s.mu.Lock()
			mb, ok := s.images[bucket]
			if !ok {
				mb = make(map[string]*ImageContainer)
				s.images[bucket] = mb
			}
			mb[img.name] = img
			s.mu.Unlock()
		}(w.bucket, w.p)
	}
	wg.Wait()
}

func (s *Server) Handler() http.Handler {
	handler := httprouter.New()
	handler.GET("/", s.handleIndex)
	handler.GET("/view/:bucket", s.handleView)
	handler.GET("/img/:bucket/:img", s.handleImage)
	return handler
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.srv.Shutdown(context.Background())
				return
			case <-ticker.C:
				s.refresh(false)
			}
		}
	}()

	s.srv.Handler = s.Handler()

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) bucketNames() []string {
	keys := make([]string, 0, len(s.producerBuckets))
	for key := range s.producerBuckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.RLock()
	keys := s.bucketNames()
	s.mu.RUnlock()

	if len(keys) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Location", "/view/"+url.PathEscape(keys[0]))
	w.WriteHeader(http.StatusFound)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	bucket := params.ByName("bucket")

	s.mu.Lock()
	itemsForBucket, ok := s.producerBuckets[bucket]
	if ok {
		s.lastViewed[bucket] = time.Now()
	}
	keys := s.bucketNames()
	names := make([]string, 0, len(itemsForBucket))
	for name := range itemsForBucket {
		names = append(names, name)
	}
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	sort.Strings(names)

	w.Header().Add("Content-Type", "text/html")
	fmt.Fprint(w, `<html><head><title>ledscope</title></head>`)
	fmt.Fprintf(w, `
		<script type="text/javascript">
			var toggleRefresh = true;
			function toggleOn() {
				toggleRefresh = !toggleRefresh;
			}

			function changeBucket() {
				var val = document.getElementById('bucketSelector').value;
				window.location.href = '/view/' + encodeURIComponent(val);
			}
			window.onload = function() {
				for (var i = 0; i < %d; i++) {
					var img = document.getElementById('graph-' + i);
					setInterval(function(image) {
						if (toggleRefresh) {
							image.src = image.src.split("?")[0] + "?" + new Date().getTime();
						}
					}, %d, img);
				}
			}
		</script>`, len(names), s.updateInterval.Milliseconds())
	fmt.Fprint(w, `<body style='background-color: black'>`)

	fmt.Fprint(w, `<select id="bucketSelector" onchange="changeBucket()">`)
	for _, bucketName := range keys {
		selected := ""
		if bucketName == bucket {
			selected = " selected"
		}
		fmt.Fprintf(w, `<option value="%s"%s>%s</option>`, html.EscapeString(bucketName), selected, html.EscapeString(bucketName))
	}
	fmt.Fprint(w, `</select>`)
	fmt.Fprint(w, `<button onclick="toggleOn()">Refresh?</button>`)

	fmt.Fprint(w, `<div style="display: flex; flex-direction: row; flex-wrap: wrap">`)
	for idx, name := range names {
		fmt.Fprintf(w, `<div><img id="graph-%d" src="/img/%s/%s?%d" /></div>`,
			idx, url.PathEscape(bucket), url.PathEscape(name), time.Now().UnixNano()/1e3)
	}
	fmt.Fprint(w, `</div></body></html>`)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	bucketName := params.ByName("bucket")
	imgName := params.ByName("img")

	s.mu.Lock()
	s.lastViewed[bucketName] = time.Now()
	img, ok := s.images[bucketName][imgName]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Add("Content-Type", "image/png")
	w.Write(img.data)
}
