/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"github.com/zalando/go-keyring"

	"fractionbars/internal/docstore"
)

// Service name for OS keyring entries.
const keyringService = "FractionBars"

// secretStore abstracts the keyring, so we can stub in tests.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// secretKeyFor names the keyring entry holding the secret for an S3 target.
func secretKeyFor(c docstore.S3Config) string {
	return "s3:" + c.Bucket + ":" + c.AccessKeyID
}

// ForgetSecret removes the stored S3 secret for cfg.
func ForgetSecret(cfg AppConfig) error {
	err := secretStore.Delete(keyringService, secretKeyFor(cfg.Store.S3))
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
