package main

// handlers.go this is our HTTP surface over the services

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Server struct {
	logger    *zap.Logger
	guard     *SchemaGuard
	tokens    *TokenIssuer
	admins    *AdminService
	skills    *SkillService
	education *EducationService
	projects  *ProjectService
	contacts  *ContactService

	maxUploadBytes int64
	uploadDir      string
}

type middleware func(http.HandlerFunc) http.HandlerFunc

// Handler returns the routed mux wrapped in CORS and request logging.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	mux := s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return logRequests(s.logger, c.Handler(mux))
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /check-admin", s.CheckAdmin)

	mux.HandleFunc("POST /admin/add", s.RegisterAdmin)
	mux.HandleFunc("POST /admin/login", s.Login)
	mux.HandleFunc("POST /verify-token", s.VerifyToken)
	mux.HandleFunc("GET /admin", s.requireAuth(s.ListAdmins))
	mux.HandleFunc("GET /admin/{id}", s.requireAuth(s.GetAdmin))
	mux.HandleFunc("PUT /admin/edit/{id}", s.requireAuth(s.UpdateAdmin))
	mux.HandleFunc("DELETE /admin/delete/{id}", s.requireAuth(s.DeleteAdmin))

	mountResource(s, mux, "/skills", s.skills, open, s.requireAuth, s.requireAuth)
	mountResource(s, mux, "/education", s.education, open, s.requireAuth, s.requireAuth)
	// visitors submit the contact form; reading it is admin only
	mountResource(s, mux, "/contact", s.contacts, s.requireAuth, open, s.requireAuth)

	mux.HandleFunc("GET /project-manager", s.ListProjects)
	mux.HandleFunc("GET /project-manager/{id}", s.GetProject)
	mux.HandleFunc("POST /project-manager/add", s.requireAuth(s.AddProject))
	mux.HandleFunc("PUT /project-manager/edit/{id}", s.requireAuth(s.UpdateProject))
	mux.HandleFunc("DELETE /project-manager/delete/{id}", s.requireAuth(s.DeleteProject))

	if s.uploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	}

	return mux
}

// mountResource wires the five CRUD routes of one resource.
func mountResource[T any, P keyed[T]](s *Server, mux *http.ServeMux, prefix string, svc *Service[T, P], read, add, write middleware) {
	mux.HandleFunc("GET "+prefix, read(func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.List(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}))

	mux.HandleFunc("GET "+prefix+"/{id}", read(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := svc.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}))

	mux.HandleFunc("POST "+prefix+"/add", add(func(w http.ResponseWriter, r *http.Request) {
		rec := new(T)
		if err := decodeJSON(r, rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		id, err := svc.Add(r.Context(), rec)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message":   svc.Name() + " added successfully",
			svc.IDKey(): id,
		})
	}))

	mux.HandleFunc("PUT "+prefix+"/edit/{id}", write(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		rec := new(T)
		if err := decodeJSON(r, rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		n, err := svc.Update(r.Context(), id, rec)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeAffected(w, svc.Name()+" updated successfully", n)
	}))

	mux.HandleFunc("DELETE "+prefix+"/delete/{id}", write(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		n, err := svc.Delete(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeAffected(w, svc.Name()+" deleted successfully", n)
	}))
}

func (s *Server) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	readiness, err := s.guard.Check(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readiness)
}

// RegisterAdmin is open until the first admin exists.
func (s *Server) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	n, err := s.admins.Count(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.registerAdmin(w, r)
		return
	}
	s.requireAuth(s.registerAdmin)(w, r)
}

func (s *Server) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var in AdminInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.admins.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Admin added successfully", "adminId": id})
}

func (s *Server) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.admins.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

func (s *Server) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	admin, err := s.admins.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (s *Server) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in AdminInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.admins.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAffected(w, "Admin updated successfully", n)
}

func (s *Server) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.admins.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAffected(w, "Admin deleted successfully", n)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var loginData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &loginData); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.admins.Login(r.Context(), loginData.Email, loginData.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   result.Token,
		"admin":   result.Admin,
	})
}

func (s *Server) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	// an unreadable body carries no token
	if err := decodeJSON(r, &body); err != nil {
		body.Token = ""
	}

	claims, err := s.admins.VerifyToken(body.Token)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"valid": false, "message": messageFor(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": claims})
}

func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	project, err := s.projects.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) AddProject(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := s.projectInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cleanup()

	project, err := s.projects.Add(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, cleanup, err := s.projectInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cleanup()

	n, err := s.projects.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAffected(w, "Project updated successfully", n)
}

func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.projects.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAffected(w, "Project deleted successfully", n)
}

// projectInput reads the multipart form of a project write. The returned
// cleanup releases the uploaded file and any temp files.
func (s *Server) projectInput(w http.ResponseWriter, r *http.Request) (ProjectInput, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ProjectInput{}, nil, validationError("Image is too large")
		}
		return ProjectInput{}, nil, &Error{Kind: ErrValidation, Message: "Invalid multipart form", Err: err}
	}

	in := ProjectInput{
		Name: strings.TrimSpace(r.FormValue("name")),
		Link: strings.TrimSpace(r.FormValue("link")),
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		cleanup()
		return ProjectInput{}, nil, &Error{Kind: ErrValidation, Message: "Invalid image upload", Err: err}
	default:
		in.Image = &ImageFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
		cleanup = func() {
			file.Close()
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return in, cleanup, nil
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, validationError("Invalid id")
	}
	return uint(id), nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &Error{Kind: ErrValidation, Message: "Invalid request body", Err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAffected(w http.ResponseWriter, message string, n int64) {
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "affectedRows": n})
}

// writeError renders err as {message, error?}. Only infrastructure errors
// carry the raw detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]any{"message": messageFor(err)}

	if status == http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		}
		if c, ok := claimsFrom(r.Context()); ok {
			fields = append(fields, zap.Uint("admin_id", c.ID))
		}
		s.logger.Error(messageFor(err), fields...)
		body["error"] = err.Error()
	}
	writeJSON(w, status, body)
}
