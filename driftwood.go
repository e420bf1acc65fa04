package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/driftwood-cms/driftwood/content"
	"github.com/driftwood-cms/driftwood/data"
	"github.com/driftwood-cms/driftwood/data/mysql"
	"github.com/driftwood-cms/driftwood/data/sqlite3"
	"github.com/driftwood-cms/driftwood/filestore"
	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/xo/dburl"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/ini.v1"
)

const defaultDB = "sqlite3:driftwood.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared"

func main() {

	var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// config file values become flag defaults, flags win

	cfg, err := ini.LooseLoad("driftwood.ini")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not read config file")
	}
	section := cfg.Section("")

	var dbArg, filesArg string // in both FlagSets

	flag.StringVar(&dbArg, "db", section.Key("db").MustString(defaultDB), "sql database url, see github.com/xo/dburl")
	flag.StringVar(&filesArg, "files", section.Key("files").MustString("files"), "store content file data in this `directory`")
	var listenAddr = flag.String("listen", section.Key("listen").MustString("127.0.0.1:8080"), "serve HTTP content at this `ip:port`")

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)
	initFlags.StringVar(&dbArg, "db", section.Key("db").MustString(defaultDB), "sql database url, see github.com/xo/dburl")
	initFlags.StringVar(&filesArg, "files", section.Key("files").MustString("files"), "store content file data in this `directory`")
	var initDomain = initFlags.String("domain", content.RootDomainName, "create this `domain` if it does not exist")
	var initUser = initFlags.String("user", "", "create a superuser with this `name`, prompting for a password")

	if len(os.Args) > 1 && os.Args[1] == "init" {
		initFlags.Parse(os.Args[2:])
	} else {
		flag.Parse()
	}

	// database

	dbURL, err := dburl.Parse(dbArg)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not parse database url")
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open sql database")
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("could not ping sql database")
	}

	logger.Info().Str("url", dbURL.String()).Msg("using database")

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore = mysql.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore = sqlite3.NewSessionStore(sqlDB)
	default:
		logger.Fatal().Str("driver", dbURL.Driver).Msg("unknown database backend")
	}

	store := data.NewStore(sqlDB)
	files := filestore.NewStore(filesArg)
	manager := content.NewManager(store, files, logger)

	if initFlags.Parsed() {
		initialize(manager.Admin(), logger, *initDomain, *initUser)
		return
	}

	sessions := scs.New()
	sessions.Store = sessionStore
	sessions.Lifetime = 24 * time.Hour

	listen(manager, sessions, logger, *listenAddr)
}

// initialize creates a domain and optionally a superuser. It acts as a
// transient superuser, like an installer would.
func initialize(m *content.Manager, logger zerolog.Logger, domainName, userName string) {

	actor := content.NewUser(m, nil, "init")

	domain, err := m.Domain(actor, domainName)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not look up domain")
	}
	if domain == nil {
		domain = content.NewDomain(m, domainName)
		if err := domain.Save(actor); err != nil {
			logger.Fatal().Err(err).Msg("could not create domain")
		}
		logger.Info().Str("domain", domain.Name()).Msg("domain created")
	}

	if userName == "" {
		return
	}

	password, err := promptPassword(userName)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not read password")
	}

	user := content.NewUser(m, nil, userName)
	if err := user.SetPassword(password); err != nil {
		logger.Fatal().Err(err).Msg("could not set password")
	}
	if err := user.Save(actor); err != nil {
		logger.Fatal().Err(err).Msg("could not create user")
	}
	logger.Info().Str("user", userName).Msg("superuser created")
}

func promptPassword(userName string) (string, error) {

	fmt.Printf("password for user %s: ", userName)
	pass1, err := terminal.ReadPassword(0)
	fmt.Println()
	if err != nil {
		return "", err
	}

	fmt.Printf("repeat password: ")
	pass2, err := terminal.ReadPassword(0)
	fmt.Println()
	if err != nil {
		return "", err
	}

	if !bytes.Equal(pass1, pass2) {
		return "", fmt.Errorf("passwords don't match")
	}
	return string(pass1), nil
}

type server struct {
	manager  *content.Manager
	sessions *scs.SessionManager
	log      zerolog.Logger
}

func listen(manager *content.Manager, sessions *scs.SessionManager, logger zerolog.Logger, addr string) {

	srv := &server{
		manager:  manager,
		sessions: sessions,
		log:      logger,
	}

	// service endpoints get a router, content gets the catch-all
	router := httprouter.New()
	router.POST("/.driftwood/login", srv.login)
	router.GET("/.driftwood/logout", srv.logout)
	http.Handle("/.driftwood/", router)
	http.HandleFunc("/", srv.serveContent)

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not listen")
	}

	logger.Info().Str("addr", addr).Msg("listening")

	httpSrv := &http.Server{
		Handler:      sessions.LoadAndSave(http.DefaultServeMux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {
			if err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("error listening")
			}
			sigintChannel <- os.Interrupt
		}
	}()

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM)
	<-sigintChannel

	logger.Info().Msg("shutting down")
	httpSrv.Close()
}

func (s *server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {

	user, err := s.manager.UserByName(r.FormValue("domain"), r.FormValue("user"))
	if err != nil {
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if user == nil || !user.VerifyPassword(r.FormValue("password")) {
		http.Error(w, "wrong credentials", http.StatusForbidden)
		return
	}

	s.sessions.Put(r.Context(), "user", user.Name())
	s.sessions.Put(r.Context(), "domain", user.DomainName())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.sessions.Destroy(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// sessionUser returns the logged-in user, or nil for anonymous requests.
func (s *server) sessionUser(r *http.Request) *content.User {
	name := s.sessions.GetString(r.Context(), "user")
	if name == "" {
		return nil
	}
	user, err := s.manager.UserByName(s.sessions.GetString(r.Context(), "domain"), name)
	if err != nil {
		return nil
	}
	return user
}

func (s *server) serveContent(w http.ResponseWriter, r *http.Request) {

	scheme := "http"
	defaultPort := 80
	if r.TLS != nil {
		scheme = "https"
		defaultPort = 443
	}

	host := r.Host
	port := defaultPort
	if h, p, err := net.SplitHostPort(r.Host); err == nil {
		host = h
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	}

	site, err := s.manager.FindSite(scheme, host, port, r.URL.Path)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if site == nil {
		http.NotFound(w, r)
		return
	}

	user := s.sessionUser(r)

	node, err := s.resolve(w, r, user, site)
	if err != nil {
		if content.IsSecurityError(err) {
			http.Error(w, "forbidden", http.StatusForbidden)
		} else {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	if node == nil {
		return // resolve already responded
	}

	if file := node.AsFile(); file != nil {
		http.ServeFile(w, r, file.Path())
		return
	}
	if page := node.AsPage(); page != nil {
		body, err := page.Element("body")
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
		return
	}
	http.NotFound(w, r)
}

// resolve walks the request path below the site directory. It handles
// translator nodes and the index fallback. A nil node with a nil error
// means the response was already written.
func (s *server) resolve(w http.ResponseWriter, r *http.Request, user *content.User, site *content.Site) (*content.Content, error) {

	var node = site.Content

	rel := strings.TrimPrefix(r.URL.Path, site.Directory())
	for _, segment := range strings.Split(rel, "/") {
		if segment == "" {
			continue
		}
		child, err := s.manager.ContentChild(user, node, segment)
		if err != nil {
			return nil, err
		}
		if child == nil {
			http.NotFound(w, r)
			return nil, nil
		}
		if translator := child.AsTranslator(); translator != nil {
			switch translator.Type() {
			case content.TranslatorTypeRedirect:
				http.Redirect(w, r, translator.Link(), http.StatusFound)
				return nil, nil
			case content.TranslatorTypeAlias:
				child, err = s.manager.ContentChild(user, node, translator.Link())
				if err != nil {
					return nil, err
				}
				if child == nil {
					http.NotFound(w, r)
					return nil, nil
				}
			default:
				http.NotFound(w, r)
				return nil, nil
			}
		}
		node = child
	}

	// a directory-style request falls through to its index page
	if node.Category() != content.CategoryPage && node.Category() != content.CategoryFile {
		index, err := s.manager.ContentChild(user, node, "index.html")
		if err != nil {
			return nil, err
		}
		if index != nil {
			node = index
		}
	}

	return node, nil
}
