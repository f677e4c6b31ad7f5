package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Timetable    *TimetableHandler
	Schedule     *ScheduleHandler
	Reservations *ReservationHandler
	Catalog      *CatalogHandler
	Middleware   []Middleware
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Timetable != nil {
		mux.HandleFunc("/entries", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Timetable.List(w, r)
			case http.MethodPost:
				cfg.Timetable.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/entries/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/entries/")
			segments := strings.Split(strings.Trim(rest, "/"), "/")
			if segments[0] == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEntryID(r.Context(), segments[0]))

			switch {
			case len(segments) == 1:
				switch r.Method {
				case http.MethodPut:
					cfg.Timetable.Update(w, r)
				case http.MethodDelete:
					cfg.Timetable.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodPut, http.MethodDelete)
				}
			case len(segments) == 2 && segments[1] == "overrides":
				switch r.Method {
				case http.MethodPut:
					cfg.Timetable.SetOverride(w, r)
				case http.MethodDelete:
					cfg.Timetable.ClearOverride(w, r)
				default:
					methodNotAllowed(w, http.MethodPut, http.MethodDelete)
				}
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Schedule != nil {
		mux.HandleFunc("/schedule", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.Resolve(w, r)
		})
		mux.HandleFunc("/schedule/conflicts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Schedule.CheckConflict(w, r)
		})
		mux.HandleFunc("/schedule/available-rooms", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.AvailableRooms(w, r)
		})
	}

	if cfg.Reservations != nil {
		mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Reservations.List(w, r)
			case http.MethodPost:
				cfg.Reservations.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/reservations/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/reservations/")
			segments := strings.Split(strings.Trim(rest, "/"), "/")
			if segments[0] == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithReservationID(r.Context(), segments[0]))

			switch {
			case len(segments) == 1:
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Reservations.Delete(w, r)
			case len(segments) == 2 && segments[1] == "approve":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Reservations.Approve(w, r)
			case len(segments) == 2 && segments[1] == "reject":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Reservations.Reject(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Catalog != nil {
		registerCatalogRoutes(mux, "/rooms", catalogRoutes{
			list:   cfg.Catalog.ListRooms,
			create: cfg.Catalog.CreateRoom,
			get:    cfg.Catalog.GetRoom,
			update: cfg.Catalog.UpdateRoom,
			delete: cfg.Catalog.DeleteRoom,
		})
		registerCatalogRoutes(mux, "/instructors", catalogRoutes{
			list:   cfg.Catalog.ListInstructors,
			create: cfg.Catalog.CreateInstructor,
			get:    cfg.Catalog.GetInstructor,
			update: cfg.Catalog.UpdateInstructor,
			delete: cfg.Catalog.DeleteInstructor,
		})
		registerCatalogRoutes(mux, "/class-sections", catalogRoutes{
			list:   cfg.Catalog.ListClassSections,
			create: cfg.Catalog.CreateClassSection,
			get:    cfg.Catalog.GetClassSection,
			update: cfg.Catalog.UpdateClassSection,
			delete: cfg.Catalog.DeleteClassSection,
		})
		registerCatalogRoutes(mux, "/courses", catalogRoutes{
			list:   cfg.Catalog.ListCourses,
			create: cfg.Catalog.CreateCourse,
			get:    cfg.Catalog.GetCourse,
			update: cfg.Catalog.UpdateCourse,
			delete: cfg.Catalog.DeleteCourse,
		})
	}

	return applyMiddleware(mux, cfg.Middleware...)
}

type catalogRoutes struct {
	list   http.HandlerFunc
	create http.HandlerFunc
	get    http.HandlerFunc
	update http.HandlerFunc
	delete http.HandlerFunc
}

func registerCatalogRoutes(mux *http.ServeMux, prefix string, routes catalogRoutes) {
	mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			routes.list(w, r)
		case http.MethodPost:
			routes.create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})
	mux.HandleFunc(prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix+"/"), "/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithCatalogID(r.Context(), id))
		switch r.Method {
		case http.MethodGet:
			routes.get(w, r)
		case http.MethodPut:
			routes.update(w, r)
		case http.MethodDelete:
			routes.delete(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
