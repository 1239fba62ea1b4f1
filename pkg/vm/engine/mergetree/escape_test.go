// Copyright 2021 - 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mergetree

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestEscapeForFileName(t *testing.T) {
	convey.Convey("escape", t, func() {
		cases := []struct {
			in   string
			want string
		}{
			{"x", "x"},
			{"hits_count", "hits_count"},
			{"UserID", "UserID"},
			{"a.b", "a%2Eb"},
			{"weird name", "weird%20name"},
			{"100%", "100%25"},
			{"", ""},
		}
		for _, c := range cases {
			convey.So(EscapeForFileName(c.in), convey.ShouldEqual, c.want)
		}
	})

	convey.Convey("unescape", t, func() {
		cases := []struct {
			in   string
			want string
		}{
			{"x", "x"},
			{"a%2Eb", "a.b"},
			{"weird%20name", "weird name"},
			{"100%25", "100%"},
			{"trailing%2", "trailing%2"},
			{"bad%zzhex", "bad%zzhex"},
		}
		for _, c := range cases {
			convey.So(UnescapeForFileName(c.in), convey.ShouldEqual, c.want)
		}
	})

	convey.Convey("round trip", t, func() {
		for _, name := range []string{"plain", "nested.inner", "mixed %.% case", "кириллица"} {
			convey.So(UnescapeForFileName(EscapeForFileName(name)), convey.ShouldEqual, name)
		}
	})
}
