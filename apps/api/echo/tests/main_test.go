package tests

import (
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/mkombe/ratiba/apps/api/echo"
	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/user"
	emailsvc "github.com/mkombe/ratiba/services/email"
	inmemdb "github.com/mkombe/ratiba/storage/database/inmem"
)

func TestMain(m *testing.M) {
	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.AdminEmail = "admin@hotmail.com"

	validate = validator.New()
	translator = newTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// testEnv is a fresh in-memory store and server per test.
type testEnv struct {
	app       *echoapi.Server
	usrRepo   user.Repository
	evtRepo   event.Repository
	usrSvc    *user.Service
	evtSvc    *event.Service
	mailSvc   core.EmailService
	stdLogger core.Logger
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db := inmemdb.NewDB()
	env := &testEnv{
		usrRepo:   inmemdb.NewUserRepository(db),
		evtRepo:   inmemdb.NewEventRepository(db),
		mailSvc:   emailsvc.NewConsoleServiceMock(conf),
		stdLogger: core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
	}
	env.usrSvc = user.NewService(env.usrRepo)
	env.evtSvc = event.NewService(env.evtRepo)

	env.app = echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       env.stdLogger,
			UserSvc:      env.usrSvc,
			EventSvc:     env.evtSvc,
			EventWatcher: inmemdb.NewEventWatcher(db),
			Validate:     validate,
			Translator:   translator,
		},
	)
	return env
}
