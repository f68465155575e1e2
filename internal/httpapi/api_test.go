// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package httpapi_test

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

const strongPassword = "Sup3r$ecure!9"

var _ = Describe("Keyward HTTP API", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
		DeferCleanup(env.close)
	})

	register := func(email string) response {
		return env.post("/auth/register", map[string]string{"email": email, "password": strongPassword})
	}

	verify := func(email string) {
		resp := env.get("/auth/verify?token="+env.outbox.Token(email), nil)
		Expect(resp.status).To(Equal(http.StatusOK))
	}

	login := func(email, password string) response {
		return env.post("/auth/login", map[string]string{"email": email, "password": password})
	}

	Describe("POST /auth/register", func() {
		It("creates an unverified user and sends a verification link", func() {
			resp := register("alice@example.com")

			Expect(resp.status).To(Equal(http.StatusCreated))
			Expect(resp.body).To(HaveKeyWithValue("message", "User registered successfully"))
			Expect(env.users.Len()).To(Equal(1))

			link, ok := env.outbox.Link("alice@example.com")
			Expect(ok).To(BeTrue())
			Expect(link).To(HavePrefix("http://localhost:3000/verify?token="))
			Expect(env.outbox.Token("alice@example.com")).To(HaveLen(32))
			Expect(env.collected.operations()).To(HaveKeyWithValue("register:ok", 1))
		})

		It("rejects a duplicate email regardless of case", func() {
			Expect(register("bob@example.com").status).To(Equal(http.StatusCreated))

			resp := register("BOB@example.com")
			Expect(resp.status).To(Equal(http.StatusConflict))
			Expect(resp.body).To(HaveKeyWithValue("code", "AUTH_EMAIL_ALREADY_EXISTS"))
			Expect(env.users.Len()).To(Equal(1))
		})

		It("reports every validation violation", func() {
			resp := env.post("/auth/register", map[string]string{"email": "not-an-email", "password": "short"})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body).To(HaveKeyWithValue("code", "AUTH_VALIDATION_FAILED"))
			Expect(resp.body["violations"]).To(HaveLen(2))
			Expect(env.users.Len()).To(BeZero())
		})

		It("rejects a weak password", func() {
			resp := env.post("/auth/register", map[string]string{"email": "carol@example.com", "password": "password123"})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body).To(HaveKeyWithValue("code", "AUTH_WEAK_PASSWORD"))
			Expect(env.users.Len()).To(BeZero())
		})

		It("keeps the user when the verification email cannot be sent", func() {
			env.outbox.Err = errors.New("smtp down")

			resp := register("dave@example.com")
			Expect(resp.status).To(Equal(http.StatusBadGateway))
			Expect(resp.body).To(HaveKeyWithValue("code", "AUTH_NOTIFICATION_FAILED"))
			Expect(env.users.Len()).To(Equal(1))
		})

		DescribeTable("rejects malformed bodies",
			func(body string) {
				resp := env.post("/auth/register", body)
				Expect(resp.status).To(Equal(http.StatusBadRequest))
				Expect(resp.body).To(HaveKeyWithValue("code", "BAD_REQUEST"))
			},
			Entry("broken JSON", `{"email":`),
			Entry("empty body", ``),
			Entry("unknown field", `{"email":"a@example.com","password":"x","admin":true}`),
			Entry("wrong type", `{"email":42,"password":"x"}`),
			Entry("trailing value", `{"email":"a@example.com","password":"x"}{}`),
		)
	})

	Describe("GET /auth/verify", func() {
		It("verifies the email once", func() {
			register("erin@example.com")
			token := env.outbox.Token("erin@example.com")

			resp := env.get("/auth/verify?token="+token, nil)
			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body).To(HaveKeyWithValue("message", "Email verified successfully"))

			again := env.get("/auth/verify?token="+token, nil)
			Expect(again.status).To(Equal(http.StatusBadRequest))
			Expect(again.body).To(HaveKeyWithValue("code", "AUTH_INVALID_OR_EXPIRED_TOKEN"))
		})

		It("rejects an unknown or missing token", func() {
			Expect(env.get("/auth/verify?token=nope", nil).status).To(Equal(http.StatusBadRequest))
			Expect(env.get("/auth/verify", nil).status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /auth/login", func() {
		It("refuses an unverified user", func() {
			register("frank@example.com")

			resp := login("frank@example.com", strongPassword)
			Expect(resp.status).To(Equal(http.StatusForbidden))
			Expect(resp.body).To(HaveKeyWithValue("code", "AUTH_EMAIL_NOT_VERIFIED"))
		})

		It("issues a bearer token to a verified user", func() {
			register("grace@example.com")
			verify("grace@example.com")

			resp := login("  grace@example.com ", strongPassword)
			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body).To(HaveKeyWithValue("token_type", "Bearer"))
			Expect(resp.body["access_token"]).NotTo(BeEmpty())
			Expect(resp.header.Get("Cache-Control")).To(Equal("no-store"))
		})

		It("does not reveal whether the email exists", func() {
			register("heidi@example.com")
			verify("heidi@example.com")

			wrongPassword := login("heidi@example.com", "not-the-password")
			unknownEmail := login("nobody@example.com", strongPassword)

			Expect(wrongPassword.status).To(Equal(http.StatusUnauthorized))
			Expect(unknownEmail.status).To(Equal(http.StatusUnauthorized))
			Expect(wrongPassword.body["error"]).To(Equal(unknownEmail.body["error"]))
			Expect(wrongPassword.body["code"]).To(Equal(unknownEmail.body["code"]))
		})
	})

	Describe("GET /users/me", func() {
		It("returns the authenticated user", func() {
			register("ivan@example.com")
			verify("ivan@example.com")
			token, _ := login("ivan@example.com", strongPassword).body["access_token"].(string)

			resp := env.get("/users/me", bearer(token))
			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body).To(HaveKeyWithValue("email", "ivan@example.com"))
			Expect(resp.body).To(HaveKeyWithValue("verified", true))
			Expect(resp.body).To(HaveKey("id"))
			Expect(resp.body).To(HaveKey("created_at"))
			Expect(resp.body).NotTo(HaveKey("password_hash"))
		})

		DescribeTable("rejects requests without a valid token",
			func(header http.Header) {
				resp := env.get("/users/me", header)
				Expect(resp.status).To(Equal(http.StatusUnauthorized))
				Expect(resp.body).To(Equal(map[string]any{"error": "unauthorized"}))
				Expect(resp.header.Get("WWW-Authenticate")).To(HavePrefix("Bearer"))
			},
			Entry("no header", nil),
			Entry("wrong scheme", http.Header{"Authorization": []string{"Basic dXNlcjpwYXNz"}}),
			Entry("garbled token", bearer("not.a.jwt")),
		)

		It("returns 404 when the token names a user that does not exist", func() {
			signed, err := env.tokens.Issue(9999, "ghost@example.com")
			Expect(err).NotTo(HaveOccurred())

			resp := env.get("/users/me", bearer(signed.AccessToken))
			Expect(resp.status).To(Equal(http.StatusNotFound))
			Expect(resp.body).To(HaveKeyWithValue("code", "AUTH_USER_NOT_FOUND"))
		})
	})

	Describe("cross-cutting behavior", func() {
		It("answers CORS preflight for configured origins", func() {
			resp := env.do(http.MethodOptions, "/auth/login", nil, http.Header{
				"Origin":                        []string{"https://app.example.com"},
				"Access-Control-Request-Method": []string{http.MethodPost},
			})
			Expect(resp.header.Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))
		})

		It("returns JSON for unknown routes", func() {
			resp := env.get("/nope", nil)
			Expect(resp.status).To(Equal(http.StatusNotFound))
			Expect(resp.body).To(HaveKeyWithValue("error", "not found"))
		})

		It("records every request", func() {
			env.get("/auth/verify?token=x", nil)
			env.get("/nope", nil)
			Eventually(env.collected.requestCount).Should(Equal(2))
		})
	})
})
