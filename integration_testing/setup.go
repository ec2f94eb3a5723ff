package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/fitledger/backend/internal"
	"github.com/fitledger/backend/internal/config"
)

const (
	serverPort  = 9000
	serverHost  = "localhost"
	tokenSecret = "integration-test-secret"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	DB         *sql.DB
	dockerPool *dockertest.Pool
	server     *internal.Server
	teardown   []func()
}

func newSuite(ctx context.Context) (_ *Suite) {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}

	// uses pool to try to connect to Docker
	if err = suite.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	redisPort, err := suite.redisSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup redis: %s", err.Error())
	}

	pgPort, err := suite.postgresSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}

	cfg := getTestConfig(redisPort, pgPort)
	suite.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:        cfg,
			TokenSecret:   tokenSecret,
			RedisPassword: "",
			VersionInfo:   "test-version-info",
		},
	)
	if err != nil {
		suite.cleanup()
		log.Fatalf("new server: %s", err)
	}

	suite.server.Serve(ctx, cfg.Host, cfg.Port)

	return suite
}

func (s *Suite) cleanup() {
	if s.DB != nil {
		s.DB.Close()
	}
	for _, teardown := range s.teardown {
		teardown()
	}
	if s.server != nil {
		s.server.GracefulShutdown()
	}
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Host:                        serverHost,
		Port:                        serverPort,
		RedisHost:                   "localhost",
		RedisPort:                   redisPort,
		PostgresHost:                "localhost",
		PostgresPort:                postgresPort,
		PostgresDBName:              "fitledger",
		LoginRateLimitAllowedPerMin: 100,
	}
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		redisResource.Close()
	})

	redisPort := redisResource.GetPort("6379/tcp")
	return redisPort, nil
}

func (s *Suite) postgresSetup() (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "12",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_HOST_AUTH_METHOD=trust",
			"POSTGRES_DB=fitledger",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		pgResource.Close()
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/fitledger?sslmode=disable", pgPort)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", fmt.Errorf("open db conn: %s", err)
	}
	s.DB = db

	if _, err := db.Exec(initSQL); err != nil {
		return "", fmt.Errorf("run init script: %s", err)
	}

	if err := db.Ping(); err != nil {
		return "", fmt.Errorf("ping db: %s", err)
	}

	return pgPort, nil
}

const initSQL = `
CREATE TABLE public.fitledger_user
(
    id            SERIAL PRIMARY KEY,
    username      VARCHAR NOT NULL,
    email         VARCHAR NOT NULL,
    password_hash VARCHAR NOT NULL,
    created_at    TIMESTAMP WITHOUT TIME ZONE NOT NULL,
    CONSTRAINT fitledger_user_username_key UNIQUE (username),
    CONSTRAINT fitledger_user_email_key UNIQUE (email)
);

ALTER TABLE public.fitledger_user OWNER TO postgres;

CREATE TABLE public.exercise
(
    id           SERIAL PRIMARY KEY,
    name         VARCHAR NOT NULL,
    description  VARCHAR NOT NULL DEFAULT '',
    category     VARCHAR NOT NULL DEFAULT '',
    muscle_group VARCHAR NOT NULL DEFAULT '',
    created_at   TIMESTAMP WITHOUT TIME ZONE NOT NULL
);

ALTER TABLE public.exercise OWNER TO postgres;

CREATE TABLE public.workout
(
    id             SERIAL PRIMARY KEY,
    user_id        INTEGER NOT NULL REFERENCES public.fitledger_user (id),
    date           TIMESTAMPTZ NOT NULL,
    comments       VARCHAR NOT NULL DEFAULT '',
    scheduled_time TIMESTAMPTZ
);

ALTER TABLE public.workout OWNER TO postgres;
CREATE INDEX ix_workout_user_id ON public.workout (user_id);
CREATE INDEX ix_workout_scheduled_time ON public.workout (scheduled_time);

CREATE TABLE public.workout_exercise
(
    id          SERIAL PRIMARY KEY,
    workout_id  INTEGER NOT NULL REFERENCES public.workout (id),
    exercise_id INTEGER NOT NULL REFERENCES public.exercise (id),
    sets        INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    weight      DOUBLE PRECISION NOT NULL DEFAULT 0
);

ALTER TABLE public.workout_exercise OWNER TO postgres;
CREATE INDEX ix_workout_exercise_workout_id ON public.workout_exercise (workout_id);
`
