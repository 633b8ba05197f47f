package server

func mockServer() *Server {
	s, _ := NewServer(ServerConfig{
		ReadReqRate:  100,
		WriteReqRate: 100,
		mock:         true,
	})

	s.DialZK(nil, nil, nil)

	return s
}
