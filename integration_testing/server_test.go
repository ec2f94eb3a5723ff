package integration_testing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, method, path, token, body string) (int, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, serverEndpoint+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func waitServerUp(t *testing.T) {
	t.Helper()
	for i := 0; i < 50; i++ {
		resp, err := http.Get(serverEndpoint + "/")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("server did not come up in time")
}

func signupAndLogin(t *testing.T, username, password, email string) string {
	t.Helper()

	code, _ := doRequest(t, "POST", "/api/signup", "",
		fmt.Sprintf(`{"username":%q,"password":%q,"email":%q}`, username, password, email))
	require.Equal(t, http.StatusCreated, code)

	code, body := doRequest(t, "POST", "/api/login", "",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &loginResp))
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

func TestServer_WorkoutTrackingFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suite := newSuite(ctx)
	defer suite.cleanup()
	waitServerUp(t)

	// signup validation and duplicates
	code, body := doRequest(t, "POST", "/api/signup", "",
		`{"username":"","password":"short","email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "Validation errors occurred")

	token := signupAndLogin(t, "mila", "secret123", "mila@test.com")

	code, body = doRequest(t, "POST", "/api/signup", "",
		`{"username":"mila","password":"secret123","email":"other@test.com"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "username already taken")

	code, body = doRequest(t, "POST", "/api/login", "",
		`{"username":"mila","password":"wrong-pass"}`)
	require.Equal(t, http.StatusUnauthorized, code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, string(body))

	// catalog: create needs a token, list is public
	code, _ = doRequest(t, "POST", "/api/exercises", "",
		`{"name":"Push Up"}`)
	require.Equal(t, http.StatusUnauthorized, code)

	pushUpID := createExercise(t, token, "Push Up", "chest")
	squatID := createExercise(t, token, "Squat", "legs")

	code, body = doRequest(t, "GET", "/api/exercises", "", "")
	require.Equal(t, http.StatusOK, code)
	var catalogList []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(body, &catalogList))
	require.Len(t, catalogList, 2)

	// workouts: one upcoming, one past, one unscheduled
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	upcomingID := createWorkout(t, token, fmt.Sprintf(
		`{"date":"2024-05-19T10:00:00Z","comments":"both","scheduled_time":%q,
		"exercises":[{"exercise_id":%d,"sets":3,"repetitions":10,"weight":0},
		{"exercise_id":%d,"sets":5,"repetitions":5,"weight":80}]}`,
		future, pushUpID, squatID))
	pastID := createWorkout(t, token, fmt.Sprintf(
		`{"date":"2024-05-18T10:00:00Z","scheduled_time":%q,"exercises":[{"exercise_id":%d}]}`,
		past, pushUpID))
	unscheduledID := createWorkout(t, token, fmt.Sprintf(
		`{"date":"2024-05-17T10:00:00Z","exercises":[{"exercise_id":%d}]}`,
		pushUpID))

	// unknown exercise reference is rejected before anything is stored
	code, body = doRequest(t, "POST", "/api/workouts", token,
		`{"date":"2024-05-19T10:00:00Z","exercises":[{"exercise_id":99999}]}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "exercise does not exist")

	// only the upcoming workout is active
	code, body = doRequest(t, "GET", "/api/workouts", token, "")
	require.Equal(t, http.StatusOK, code)
	var activeWorkouts []struct {
		ID        int `json:"id"`
		Exercises []struct {
			Exercise struct {
				Name string `json:"name"`
			} `json:"exercise"`
		} `json:"exercises"`
	}
	require.NoError(t, json.Unmarshal(body, &activeWorkouts))
	require.Len(t, activeWorkouts, 1)
	assert.Equal(t, upcomingID, activeWorkouts[0].ID)
	assert.NotEqual(t, pastID, activeWorkouts[0].ID)
	require.Len(t, activeWorkouts[0].Exercises, 2)
	assert.Equal(t, "Push Up", activeWorkouts[0].Exercises[0].Exercise.Name)

	// updating with an exercises array replaces all previous entries
	code, body = doRequest(t, "PUT", fmt.Sprintf("/api/workouts/%d", upcomingID), token,
		fmt.Sprintf(`{"comments":"squats only","exercises":[{"exercise_id":%d,"sets":4}]}`, squatID))
	require.Equal(t, http.StatusOK, code)
	var updated struct {
		Comments  string `json:"comments"`
		Date      string `json:"date"`
		Exercises []struct {
			ExerciseID int `json:"exercise_id"`
			Sets       int `json:"sets"`
		} `json:"exercises"`
	}
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "squats only", updated.Comments)
	// omitted date kept its stored value
	assert.Contains(t, updated.Date, "2024-05-19")
	require.Len(t, updated.Exercises, 1)
	assert.Equal(t, squatID, updated.Exercises[0].ExerciseID)
	assert.Equal(t, 4, updated.Exercises[0].Sets)

	// another user cannot see or touch these workouts
	otherToken := signupAndLogin(t, "joe", "secret456", "joe@test.com")
	code, body = doRequest(t, "PUT", fmt.Sprintf("/api/workouts/%d", upcomingID), otherToken,
		`{"comments":"hijack"}`)
	require.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"message":"Workout not found"}`, string(body))
	code, _ = doRequest(t, "DELETE", fmt.Sprintf("/api/workouts/%d", upcomingID), otherToken, "")
	require.Equal(t, http.StatusNotFound, code)

	// report counts the whole ledger, not only active workouts
	code, body = doRequest(t, "GET", "/api/reports", token, "")
	require.Equal(t, http.StatusOK, code)
	var report struct {
		TotalWorkouts       int `json:"totalWorkouts"`
		TotalExercises      int `json:"totalExercises"`
		MostCommonExercises []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"mostCommonExercises"`
	}
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 3, report.TotalWorkouts)
	assert.Equal(t, 3, report.TotalExercises)
	require.Len(t, report.MostCommonExercises, 2)
	assert.Equal(t, "Push Up", report.MostCommonExercises[0].Name)
	assert.Equal(t, 2, report.MostCommonExercises[0].Count)
	assert.Equal(t, "Squat", report.MostCommonExercises[1].Name)
	assert.Equal(t, 1, report.MostCommonExercises[1].Count)

	// delete removes the workout and its entries, second delete misses
	code, body = doRequest(t, "DELETE", fmt.Sprintf("/api/workouts/%d", unscheduledID), token, "")
	require.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, body)
	code, _ = doRequest(t, "DELETE", fmt.Sprintf("/api/workouts/%d", unscheduledID), token, "")
	require.Equal(t, http.StatusNotFound, code)

	var entriesLeft int
	require.NoError(t, suite.DB.QueryRow(
		"SELECT COUNT(*) FROM workout_exercise WHERE workout_id = $1", unscheduledID,
	).Scan(&entriesLeft))
	assert.Equal(t, 0, entriesLeft)

	// missing and invalid tokens
	code, _ = doRequest(t, "GET", "/api/workouts", "", "")
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = doRequest(t, "GET", "/api/workouts", "garbage-token", "")
	require.Equal(t, http.StatusForbidden, code)
}

func createExercise(t *testing.T, token, name, muscleGroup string) int {
	t.Helper()
	code, body := doRequest(t, "POST", "/api/exercises", token,
		fmt.Sprintf(`{"name":%q,"muscle_group":%q}`, name, muscleGroup))
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.True(t, created.ID > 0)
	return created.ID
}

func createWorkout(t *testing.T, token, body string) int {
	t.Helper()
	code, respBody := doRequest(t, "POST", "/api/workouts", token, body)
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(respBody, &created))
	require.True(t, created.ID > 0)
	return created.ID
}
