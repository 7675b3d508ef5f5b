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
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoColumnErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	NoTypeErr
	ExistTypeErr
	InvalidEnumValueErr
	NotNullViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

func (e SQLError) String() string {
	switch e {
	case NoColumnErr:
		return "no_column"
	case ExistColumnErr:
		return "exist_column"
	case NoTableErr:
		return "no_table"
	case ExistTableErr:
		return "exist_table"
	case NoTypeErr:
		return "no_type"
	case ExistTypeErr:
		return "exist_type"
	case InvalidEnumValueErr:
		return "invalid_enum_value"
	case NotNullViolationErr:
		return "not_null_violation"
	case DataTruncatedErr:
		return "data_truncated"
	case InvalidTypeCastErr:
		return "invalid_type_cast"
	default:
		return "unknown"
	}
}

// IsSqlError classifies driver errors relevant to enum schema changes.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42703":
			return true, NoColumnErr
		case "42701":
			return true, ExistColumnErr
		case "42P01":
			return true, NoTableErr
		case "42P07":
			return true, ExistTableErr
		case "42704":
			return true, NoTypeErr
		case "42710":
			return true, ExistTypeErr
		case "22P02":
			return true, InvalidEnumValueErr
		case "23502":
			return true, NotNullViolationErr
		case "42804":
			return true, InvalidTypeCastErr
		default:
			return true, UnknownErr
		}
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1054:
			return true, NoColumnErr
		case 1060:
			return true, ExistColumnErr
		case 1146:
			return true, NoTableErr
		case 1050:
			return true, ExistTableErr
		case 1048:
			return true, NotNullViolationErr
		case 1265:
			return true, DataTruncatedErr
		default:
			return true, UnknownErr
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "no such column"):
		return true, NoColumnErr
	case strings.Contains(s, "duplicate column name"):
		return true, ExistColumnErr
	case strings.Contains(s, "no such table"):
		return true, NoTableErr
	case strings.Contains(s, "invalid input value for enum"):
		return true, InvalidEnumValueErr
	case strings.Contains(s, "type") && strings.Contains(s, "already exists"):
		return true, ExistTypeErr
	case strings.Contains(s, "table") && strings.Contains(s, "already exists"):
		return true, ExistTableErr
	case strings.Contains(s, "not null constraint failed"):
		return true, NotNullViolationErr
	}
	return false, UnknownErr
}
