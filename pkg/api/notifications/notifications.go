// Gamedock Core
// Copyright (c) 2026 The Gamedock Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedock Core.
//
// Gamedock Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedock Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedock Core.  If not, see <http://www.gnu.org/licenses/>.

package notifications

import (
	"context"
	"encoding/json"

	"github.com/gamedock/gamedock-core/pkg/api/models"
	"github.com/gamedock/gamedock-core/pkg/service/downloads"
	"github.com/gamedock/gamedock-core/pkg/service/status"
	"github.com/rs/zerolog/log"
)

func build(method string, payload any) (models.Notification, bool) {
	var params json.RawMessage
	if payload != nil {
		var err error
		params, err = json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return models.Notification{}, false
		}
	}
	return models.Notification{Method: method, Params: params}, true
}

// sendNotification never blocks. A full channel drops the notification.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	n, ok := build(method, payload)
	if !ok {
		return
	}
	select {
	case ns <- n:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func QueueChanged(ns chan<- models.Notification, info downloads.Info) {
	sendNotification(ns, models.NotificationQueueChanged, info)
}

func FrontendMessage(ns chan<- models.Notification, channel string, payload any) {
	sendNotification(ns, models.NotificationFrontendMessage, models.FrontendMessageParams{
		Channel: channel,
		Payload: payload,
	})
}

func DialogConfirm(ns chan<- models.Notification, params models.DialogConfirmParams) {
	sendNotification(ns, models.NotificationDialogConfirm, params)
}

// StatusChanged drops progress samples when the channel is full but waits
// for room to deliver a phase change, until ctx ends.
func StatusChanged(ctx context.Context, ns chan<- models.Notification, st status.GameStatus) {
	if st.Progress != nil {
		sendNotification(ns, models.NotificationStatusChanged, st)
		return
	}
	n, ok := build(models.NotificationStatusChanged, st)
	if !ok {
		return
	}
	select {
	case ns <- n:
	case <-ctx.Done():
		log.Warn().Str("app_id", st.AppID).Str("phase", string(st.Phase)).Msg("status notification not delivered")
	}
}

// ForwardStatus relays every status event from sub until sub is closed or
// ctx ends.
func ForwardStatus(ctx context.Context, sub <-chan status.GameStatus, ns chan<- models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub:
			if !ok {
				return
			}
			StatusChanged(ctx, ns, st)
		}
	}
}
