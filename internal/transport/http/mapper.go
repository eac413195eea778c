package http

import (
	"encoding/json"

	"github.com/onetimechat/relay-server/internal/core"
	"github.com/onetimechat/relay-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.ErrorData, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom:
		var data proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeaveRoom {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: data.RoomID}, nil, nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		cmd := &core.Command{
			Kind: core.CommandSendMessage,
			Room: data.RoomID,
			Text: data.Text,
		}
		if data.ReplyTo != nil {
			cmd.ReplyTo = &core.ReplyRef{
				ID:     data.ReplyTo.ID,
				Text:   data.ReplyTo.Text,
				Sender: data.ReplyTo.Sender,
			}
		}
		return cmd, nil, nil

	case proto.InboundTypeOffer, proto.InboundTypeAnswer, proto.InboundTypeICECandidate:
		var data proto.SignalData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		cmd := &core.Command{Room: data.RoomID}
		switch inbound.Type {
		case proto.InboundTypeOffer:
			cmd.Kind = core.CommandOffer
			cmd.Payload = data.Offer
		case proto.InboundTypeAnswer:
			cmd.Kind = core.CommandAnswer
			cmd.Payload = data.Answer
		default:
			cmd.Kind = core.CommandICECandidate
			cmd.Payload = data.Candidate
		}
		return cmd, nil, nil

	default:
		return nil, &proto.ErrorData{Code: core.ErrCodeInvalidRequest, Message: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeRoomJoined,
			Data: proto.RoomJoinedData{RoomID: event.Room, ParticipantCount: event.Count},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Data: proto.UserJoinedData{ParticipantCount: event.Count},
		}
	case core.EventRoomLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeRoomLeft,
			Data: proto.RoomLeftData{RoomID: event.Room},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Data: proto.UserLeftData{ParticipantCount: event.Count},
		}
	case core.EventMessageReceived:
		data := proto.MessageReceivedData{
			ID:        event.Message.ID,
			Text:      event.Message.Text,
			Sender:    event.Message.Sender,
			Timestamp: event.Message.CreatedAt,
			RoomID:    event.Message.Room,
		}
		if event.Message.ReplyTo != nil {
			data.ReplyTo = &proto.ReplyRefData{
				ID:     event.Message.ReplyTo.ID,
				Text:   event.Message.ReplyTo.Text,
				Sender: event.Message.ReplyTo.Sender,
			}
		}
		return proto.Outbound{Type: proto.OutboundTypeMessageReceived, Data: data}
	case core.EventOfferReceived:
		return proto.Outbound{
			Type: proto.OutboundTypeOfferReceived,
			Data: proto.OfferReceivedData{Offer: event.Payload, From: event.From},
		}
	case core.EventAnswerReceived:
		return proto.Outbound{
			Type: proto.OutboundTypeAnswerReceived,
			Data: proto.AnswerReceivedData{Answer: event.Payload, From: event.From},
		}
	case core.EventICECandidateReceived:
		return proto.Outbound{
			Type: proto.OutboundTypeICECandidateReceived,
			Data: proto.ICECandidateReceivedData{Candidate: event.Payload, From: event.From},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type: proto.OutboundTypeError,
				Data: proto.ErrorData{Code: "unknown", Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.ErrorData{Code: event.Error.Code, Message: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.ErrorData{Message: "unknown event"}}
	}
}
