/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var (
	ddlCreate = color.New(color.FgGreen)
	ddlAlter  = color.New(color.FgYellow)
	ddlDrop   = color.New(color.FgRed)
	ddlTag    = color.New(color.FgCyan)
	ddlError  = color.New(color.BgRed, color.FgWhite)
)

// DDLQueryHook prints schema statements (CREATE, ALTER, DROP) issued through
// bun, leaving ordinary queries to bundebug.
type DDLQueryHook struct {
	envName string
	writer  io.Writer
}

var _ bun.QueryHook = (*DDLQueryHook)(nil)

// NewDDLQueryHook writes to w; the HUMMER_DDL_LOG environment variable set to
// "0" silences it.
func NewDDLQueryHook(w io.Writer) *DDLQueryHook {
	if w == nil {
		w = os.Stdout
	}
	return &DDLQueryHook{envName: "HUMMER_DDL_LOG", writer: w}
}

func (h *DDLQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *DDLQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if env, ok := os.LookupEnv(h.envName); ok && strings.TrimSpace(env) == "0" {
		return
	}
	verb := ddlVerb(event.Query)
	if verb == "" {
		return
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		ddlTag.Sprintf("%10s", "[DDL]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", ddlColor(verb).Sprint(event.Query),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", ddlError.Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func ddlVerb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	switch verb := strings.ToUpper(fields[0]); verb {
	case "CREATE", "ALTER", "DROP":
		return verb
	}
	return ""
}

func ddlColor(verb string) *color.Color {
	switch verb {
	case "CREATE":
		return ddlCreate
	case "ALTER":
		return ddlAlter
	default:
		return ddlDrop
	}
}
